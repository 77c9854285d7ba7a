package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/security"
	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

const (
	// ClaimsKey Context 中存储 Claims 的 key
	ClaimsKey = "jwt_claims"
	// LoggerKey Context 中存储带调用方信息的 Logger 的 key
	LoggerKey = "request_logger"
)

// AuthConfig 认证配置
type AuthConfig struct {
	JWTManager *security.JWTManager
	// SkipPaths 精确匹配，SkipPrefixes 前缀匹配
	SkipPaths    []string
	SkipPrefixes []string
	// HeaderName 默认 Authorization
	HeaderName string
	Logger     logger.Logger
}

// Auth JWT 认证中间件，令牌前缀由 JWTManager 去除
func Auth(cfg *AuthConfig) gin.HandlerFunc {
	header := cfg.HeaderName
	if header == "" {
		header = "Authorization"
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token := c.GetHeader(header)
		if token == "" {
			weberrors.Abort(c, weberrors.CodeUnAuthorized, security.ErrTokenMissing.Error())
			return
		}
		claims, err := cfg.JWTManager.ValidateToken(token)
		if err != nil {
			weberrors.Abort(c, weberrors.CodeUnAuthorized, err.Error())
			return
		}

		c.Set(ClaimsKey, claims)
		if cfg.Logger != nil {
			c.Set(LoggerKey, cfg.Logger.WithFields("subject", claims.Subject))
		}
		c.Next()
	}
}

// GetClaims 读取认证中间件写入的 Claims
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}

// RequestLogger 返回带调用方信息的 Logger，未经过认证时返回 fallback
func RequestLogger(c *gin.Context, fallback logger.Logger) logger.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return fallback
}
