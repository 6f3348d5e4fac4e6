package handler

import (
	"net/http"
	"strconv"

	"signite/internal/dto"
	"signite/internal/service"
	"signite/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	CreateComment(c *gin.Context)
	GetCommentTree(c *gin.Context)
	GetCommentCount(c *gin.Context)
	UpdateComment(c *gin.Context)
	DeleteComment(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) CommentHandler {
	return &commentHandler{
		CommentService: commentService,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
	// 带parent_id就是回复，不带就是一级评论
	ParentID *uint64 `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// context中的userID是jwt中间件解析的，jwt.MapClaims里的数字会被解析为float64，
// context的值又是interface{}，所以要先断言float64再转uint64
func currentUserID(c *gin.Context) (uint64, bool) {
	userIDFloat, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := userIDFloat.(float64)
	if !ok {
		return 0, false
	}
	return uint64(userID), true
}

// 创建评论：1、解析URL中的postID参数 2、解析Body（content必填，parent_id可选）
// 3、从context取userID（jwt） 4、service层创建并返回
func (h *commentHandler) CreateComment(c *gin.Context) {
	// URL解析参数获得string格式，strconv.ParseUint转成uint64
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	// 防御性编程，正常走到这里一定已经过了jwt中间件，就怕程序员误用
	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}

	// 正式进入业务前，把logger的关键字段整理好
	logCtx := logger.Log.WithField("user_id", userID).WithField("post_id", postID)
	logCtx.Info("开始创建评论")
	comment, err := h.CommentService.CreateComment(postID, userID, req.Content, req.ParentID)
	if err != nil {
		logCtx.WithError(err).Error("创建评论失败")
		sendServiceError(c, err)
		return
	}
	// 业务成功，打上返回的comment的ID
	logCtx.WithField("comment_id", comment.ID).Info("评论创建成功")
	c.JSON(http.StatusCreated, gin.H{ // 201
		"message": "评论成功",
		"data":    dto.ToCommentNode(comment, nil),
	})
}

// 获取一个帖子的评论树：1、解析postID 2、service层拿根列表和父子分组 3、dto层递归组装嵌套结构
func (h *commentHandler) GetCommentTree(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	roots, childrenMap, err := h.CommentService.GetCommentTree(postID)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Error("获取评论树失败")
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取评论列表成功",
		"data":    dto.ToCommentNodes(roots, childrenMap),
	})
}

// 获取一个帖子的未删除评论数
func (h *commentHandler) GetCommentCount(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	count, err := h.CommentService.CountComments(postID)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取评论数成功",
		"data":    gin.H{"count": count},
	})
}

// 编辑评论：1、解析commentID 2、解析Body 3、context取userID 4、service层校验归属后更新
func (h *commentHandler) UpdateComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的评论ID") // 400
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("comment_id", commentID)
	comment, err := h.CommentService.UpdateComment(commentID, userID, req.Content)
	if err != nil {
		logCtx.WithError(err).Error("编辑评论失败")
		sendServiceError(c, err)
		return
	}

	logCtx.Info("评论编辑成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "编辑成功",
		"data":    dto.ToCommentNode(comment, nil),
	})
}

// 删除评论：service层决定软删还是硬删，handler只管编号和归属人
func (h *commentHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的评论ID") // 400
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("comment_id", commentID)
	if err := h.CommentService.DeleteComment(commentID, userID); err != nil {
		logCtx.WithError(err).Error("删除评论失败")
		sendServiceError(c, err)
		return
	}

	logCtx.Info("评论删除成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "删除成功",
	})
}
