package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
)

// Recovery 捕获 handler panic，连接已断开时只记录不回写
func Recovery(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			dump, _ := httputil.DumpRequest(c.Request, false)
			if err, ok := r.(error); ok && isBrokenPipe(err) {
				l.Warn("http connection broken", "error", err, "request", string(dump))
				_ = c.Error(err)
				c.Abort()
				return
			}

			l.Error("http handler panic", "panic", r, "request", string(dump))
			c.AbortWithStatus(http.StatusInternalServerError)
		}()
		c.Next()
	}
}

func isBrokenPipe(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
