package handler

import (
	"errors"
	"net/http"

	"signite/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定义了标准的API错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

// sendErrorResponse 是一个辅助函数，用于发送标准格式的错误响应
func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// 业务错误种类到HTTP状态码的映射，纯查表。种类判断用errors.Is，不看错误文案
func sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		sendErrorResponse(c, http.StatusNotFound, err.Error()) // 404
	case errors.Is(err, service.ErrForbidden):
		sendErrorResponse(c, http.StatusForbidden, err.Error()) // 403
	case errors.Is(err, service.ErrInvalidState):
		sendErrorResponse(c, http.StatusConflict, err.Error()) // 409
	case errors.Is(err, service.ErrLimitExceeded):
		sendErrorResponse(c, http.StatusUnprocessableEntity, err.Error()) // 422
	default:
		sendErrorResponse(c, http.StatusInternalServerError, "服务器内部错误") // 500
	}
}
