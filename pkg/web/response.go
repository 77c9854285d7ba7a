package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/pkg/otel"
	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	TraceID string `json:"trace_id,omitempty"`
}

// Success 200 响应
func Success(c *gin.Context, data any) {
	respond(c, http.StatusOK, weberrors.CodeOK, "ok", data)
}

// Accepted 202 响应，用于只受理不等待结果的异步操作
func Accepted(c *gin.Context, data any) {
	respond(c, http.StatusAccepted, weberrors.CodeOK, "accepted", data)
}

// Error 按业务错误码返回错误响应
func Error(c *gin.Context, code int, message string) {
	respond(c, weberrors.CodeToStatus(code), code, message, nil)
}

func respond(c *gin.Context, status, code int, message string, data any) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Data:    data,
		TraceID: otel.TraceIDFromContext(c.Request.Context()),
	})
}
