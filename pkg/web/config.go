package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/pkg/config"
	"github.com/lk2023060901/xdooria-social/pkg/web/middleware"
)

// Config Web 服务配置
type Config struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" json:"addr" validate:"required"`
	// Mode debug, release, test
	Mode string `mapstructure:"mode" json:"mode" validate:"oneof=debug release test"`
	// ServiceName 写入 span 属性
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`

	CORS      middleware.CORSConfig      `mapstructure:"cors" json:"cors"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ServiceName:     "web",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		CORS: middleware.CORSConfig{
			MaxAge: 12 * time.Hour,
		},
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			PerIP:             true,
			MaxLimiters:       1024,
			LimiterTTL:        10 * time.Minute,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	return config.Validate(c)
}
