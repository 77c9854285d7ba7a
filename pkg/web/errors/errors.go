// Package errors 定义 HTTP 接口的业务错误码
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeOK            = 0
	CodeInvalidParams = 40001
	CodeUnAuthorized  = 40002
	CodeForbidden     = 40003
	CodeNotFound      = 40004
	CodeUnavailable   = 40009
	CodeRateLimited   = 40029
	CodeInternalError = 50000
)

// CodeToStatus 业务错误码映射为 HTTP 状态码
func CodeToStatus(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeUnAuthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	if code >= 50000 {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Abort 以统一响应结构中断请求
func Abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(CodeToStatus(code), gin.H{
		"code":    code,
		"message": message,
		"data":    nil,
	})
}
