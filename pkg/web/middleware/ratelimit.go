package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/xdooria-social/pkg/cache/lru"
	"github.com/lk2023060901/xdooria-social/pkg/logger"
	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" json:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" json:"burst" validate:"gte=0"`
	// PerIP 按客户端 IP 分别限流，否则全局共用一个令牌桶
	PerIP     bool     `mapstructure:"per_ip" json:"per_ip"`
	SkipPaths []string `mapstructure:"skip_paths" json:"skip_paths"`

	// 按 IP 的限流器数量上限与空闲过期时间
	MaxLimiters int           `mapstructure:"max_limiters" json:"max_limiters" validate:"gte=0"`
	LimiterTTL  time.Duration `mapstructure:"limiter_ttl" json:"limiter_ttl"`
}

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	cfg    *RateLimitConfig
	global *rate.Limiter
	logger logger.Logger

	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg *RateLimitConfig, l logger.Logger) (*RateLimiter, error) {
	if l == nil {
		l = logger.NewNoop()
	}
	limiters, err := lru.New[string, *rate.Limiter](&lru.Config{
		MaxSize:         cfg.MaxLimiters,
		TTL:             cfg.LimiterTTL,
		CleanupInterval: cfg.LimiterTTL,
	}, lru.WithOnEvict[string, *rate.Limiter](func(key string, _ *rate.Limiter) {
		l.Debug("rate limiter evicted", "key", key)
	}))
	if err != nil {
		return nil, err
	}

	return &RateLimiter{
		cfg:      cfg,
		global:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:   l,
		limiters: limiters,
	}, nil
}

// Allow 检查 key 对应的令牌桶，key 为空时使用全局桶
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return rl.global.Allow()
	}
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.limiters.Set(key, l)
	return l
}

// Close 停止过期清理
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// RateLimit 限流中间件，超限时返回 429
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(rl.cfg.SkipPaths))
	for _, p := range rl.cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		var key string
		if rl.cfg.PerIP {
			key = "ip:" + c.ClientIP()
		}
		if !rl.Allow(key) {
			rl.logger.Warn("rate limit exceeded", "key", key, "path", path)
			c.Header("Retry-After", strconv.Itoa(1))
			weberrors.Abort(c, weberrors.CodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}
