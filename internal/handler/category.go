package handler

import (
	"net/http"

	"signite/internal/dto"
	"signite/internal/model"
	"signite/internal/service"
	"signite/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CategoryHandler interface {
	GetTree(c *gin.Context)
	GetBySlug(c *gin.Context)
	GetChildren(c *gin.Context)
	GetDescendants(c *gin.Context)
	GetAncestors(c *gin.Context)
	CreateCategory(c *gin.Context)
	ResetCache(c *gin.Context)
}

type categoryHandler struct {
	CategoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) CategoryHandler {
	return &categoryHandler{CategoryService: categoryService}
}

type CreateCategoryRequest struct {
	Name         string                 `json:"name" binding:"required,max=100"`
	Slug         string                 `json:"slug" binding:"required,max=100"`
	ParentID     *uint64                `json:"parent_id"`
	DisplayOrder int                    `json:"display_order"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// 整棵分类树：service层给根列表和父子分组，dto层递归组装
func (h *categoryHandler) GetTree(c *gin.Context) {
	roots, childrenMap, err := h.CategoryService.GetAllAsTree()
	if err != nil {
		logger.Log.WithError(err).Error("获取分类树失败")
		sendErrorResponse(c, http.StatusInternalServerError, "获取分类树失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取分类树成功",
		"data":    dto.ToCategoryNodes(roots, childrenMap),
	})
}

// 按slug查单个分类，不带children
func (h *categoryHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")

	category, err := h.CategoryService.GetBySlug(slug)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取分类成功",
		"data":    dto.ToCategoryNode(category, nil),
	})
}

// 三个路径查询的path参数都从查询串取，path里有"/"，走URL路径段会被切开
func (h *categoryHandler) GetChildren(c *gin.Context) {
	parentPath := c.Query("path")
	if parentPath == "" {
		sendErrorResponse(c, http.StatusBadRequest, "path参数不能为空") // 400
		return
	}

	categories, err := h.CategoryService.GetDirectChildren(parentPath)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取子分类失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取子分类成功",
		"data":    dto.ToCategoryList(categories),
	})
}

func (h *categoryHandler) GetDescendants(c *gin.Context) {
	parentPath := c.Query("path")
	if parentPath == "" {
		sendErrorResponse(c, http.StatusBadRequest, "path参数不能为空") // 400
		return
	}

	categories, err := h.CategoryService.GetAllDescendants(parentPath)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取后代分类失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取后代分类成功",
		"data":    dto.ToCategoryList(categories),
	})
}

func (h *categoryHandler) GetAncestors(c *gin.Context) {
	childPath := c.Query("path")
	if childPath == "" {
		sendErrorResponse(c, http.StatusBadRequest, "path参数不能为空") // 400
		return
	}

	categories, err := h.CategoryService.GetAllAncestors(childPath)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取祖先分类失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取祖先分类成功",
		"data":    dto.ToCategoryList(categories),
	})
}

// 建分类，只有admin能操作
func (h *categoryHandler) CreateCategory(c *gin.Context) {
	role, _ := c.Get("role")
	if role != model.RoleAdmin {
		sendErrorResponse(c, http.StatusForbidden, "只有管理员能创建分类") // 403
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("创建分类参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	logCtx := logger.Log.WithField("slug", req.Slug)
	logCtx.Info("开始创建分类")
	category, err := h.CategoryService.CreateCategory(req.Name, req.Slug, req.ParentID, req.DisplayOrder, req.Metadata)
	if err != nil {
		logCtx.WithError(err).Error("创建分类失败")
		sendServiceError(c, err)
		return
	}

	logCtx.WithField("category_id", category.ID).Info("分类创建成功")
	c.JSON(http.StatusCreated, gin.H{ // 201
		"message": "创建分类成功",
		"data":    dto.ToCategoryNode(category, nil),
	})
}

// 手动重置分类列表缓存，admin专用
func (h *categoryHandler) ResetCache(c *gin.Context) {
	role, _ := c.Get("role")
	if role != model.RoleAdmin {
		sendErrorResponse(c, http.StatusForbidden, "只有管理员能重置缓存") // 403
		return
	}

	if err := h.CategoryService.ResetCache(); err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "缓存重置失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "缓存重置成功",
	})
}
