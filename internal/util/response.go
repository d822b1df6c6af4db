package util

import (
	"athos_explorer_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func ValidationFailed(c *gin.Context, ve *ValidationError) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Data:    ve,
	})
}

// Retryable 客户端可原样重发的失败
func Retryable(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:      code,
		Message:   message,
		Retryable: true,
	})
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}

// HandleServiceError 将服务层错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	if ve, ok := IsValidationError(err); ok {
		ValidationFailed(c, ve)
		return
	}
	switch {
	case errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrQuizNotFound),
		errors.Is(err, ErrUnknownModule),
		errors.Is(err, ErrUnknownSection),
		errors.Is(err, ErrSuggestionNotFound),
		errors.Is(err, ErrUserNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)
	case errors.Is(err, ErrEmailRegistered):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrProgressConflict):
		Retryable(c, http.StatusConflict, ErrProgressConflict.Error())
	case errors.Is(err, ErrTransactionFailed):
		logger.Log.Warn("Progress transaction rolled back",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		Retryable(c, http.StatusServiceUnavailable, ErrTransactionFailed.Error())
	default:
		LogInternalError(c, err)
	}
}
