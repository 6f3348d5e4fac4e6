package handler

import (
	"net/http"
	"strconv"

	"signite/internal/dto"
	"signite/internal/service"
	"signite/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PostHandler interface {
	CreatePost(c *gin.Context)
	GetPostByID(c *gin.Context)
	ListPosts(c *gin.Context)
	CountPosts(c *gin.Context)
	SearchPosts(c *gin.Context)
	ListPostsByTag(c *gin.Context)
	ListTags(c *gin.Context)
	UpdatePost(c *gin.Context)
	DeletePost(c *gin.Context)
}

type postHandler struct {
	PostService service.PostService
}

func NewPostHandler(postService service.PostService) PostHandler {
	return &postHandler{PostService: postService}
}

type CreatePostRequest struct {
	Title      string   `json:"title" binding:"required,max=200"`
	Content    string   `json:"content" binding:"required"`
	CategoryID uint64   `json:"category_id" binding:"required"`
	Tags       []string `json:"tags"`
}

type UpdatePostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// 发帖：1、解析Body 2、context取userID和role（受限分类要看角色） 3、service层创建
func (h *postHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("发帖参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}
	role, _ := c.Get("role")
	roleStr, _ := role.(string)

	logCtx := logger.Log.WithField("user_id", userID).WithField("category_id", req.CategoryID)
	logCtx.Info("开始创建帖子")
	post, err := h.PostService.CreatePost(userID, roleStr, req.Title, req.Content, req.CategoryID, req.Tags)
	if err != nil {
		logCtx.WithError(err).Error("创建帖子失败")
		sendServiceError(c, err)
		return
	}

	logCtx.WithField("post_id", post.ID).Info("帖子创建成功")
	c.JSON(http.StatusCreated, gin.H{ // 201
		"message": "发帖成功",
		"data":    dto.ToPostResponse(post),
	})
}

// 读单帖，走缓存
func (h *postHandler) GetPostByID(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	post, err := h.PostService.GetPostByID(postID)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取帖子成功",
		"data":    dto.ToPostResponse(post),
	})
}

// 帖子列表：分页 + 可选的category_id/author_id过滤，查询参数缺省时给默认值
func (h *postHandler) ListPosts(c *gin.Context) {
	// 在URL的查询参数里（?后面的部分）找page这个键，没找到就返回默认值"1"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	categoryID, _ := strconv.ParseUint(c.DefaultQuery("category_id", "0"), 10, 64)
	authorID, _ := strconv.ParseUint(c.DefaultQuery("author_id", "0"), 10, 64)

	posts, err := h.PostService.ListPosts(page, pageSize, categoryID, authorID)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取帖子列表失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取帖子列表成功",
		"data":    dto.ToPostResponses(posts),
	})
}

// 帖子总数，过滤条件和列表一致，前端拿来算页数
func (h *postHandler) CountPosts(c *gin.Context) {
	categoryID, _ := strconv.ParseUint(c.DefaultQuery("category_id", "0"), 10, 64)
	authorID, _ := strconv.ParseUint(c.DefaultQuery("author_id", "0"), 10, 64)

	count, err := h.PostService.CountPosts(categoryID, authorID)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取帖子总数失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取帖子总数成功",
		"data":    gin.H{"count": count},
	})
}

// 帖子搜索：标题/正文LIKE匹配
func (h *postHandler) SearchPosts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		sendErrorResponse(c, http.StatusBadRequest, "搜索关键词不能为空") // 400
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	posts, err := h.PostService.SearchPosts(query, page, pageSize)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "搜索失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "搜索成功",
		"data":    dto.ToPostResponses(posts),
	})
}

// 某个标签下的帖子
func (h *postHandler) ListPostsByTag(c *gin.Context) {
	tagSlug := c.Param("tag_slug")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	posts, err := h.PostService.ListPostsByTag(tagSlug, page, pageSize)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取标签帖子成功",
		"data":    dto.ToPostResponses(posts),
	})
}

// 全部标签
func (h *postHandler) ListTags(c *gin.Context) {
	tags, err := h.PostService.ListTags()
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取标签列表失败") // 500
		return
	}

	type tagResponse struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	responses := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取标签列表成功",
		"data":    responses,
	})
}

// 编辑帖子：归属校验在service层
func (h *postHandler) UpdatePost(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("post_id", postID)
	post, err := h.PostService.UpdatePost(postID, userID, req.Title, req.Content, req.Tags)
	if err != nil {
		logCtx.WithError(err).Error("编辑帖子失败")
		sendServiceError(c, err)
		return
	}

	logCtx.Info("帖子编辑成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "编辑成功",
		"data":    dto.ToPostResponse(post),
	})
}

// 删帖
func (h *postHandler) DeletePost(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的帖子ID") // 400
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("post_id", postID)
	if err := h.PostService.DeletePost(postID, userID); err != nil {
		logCtx.WithError(err).Error("删除帖子失败")
		sendServiceError(c, err)
		return
	}

	logCtx.Info("帖子删除成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "删除成功",
	})
}
