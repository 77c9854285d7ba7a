package redisplatform

import (
	"time"

	"github.com/lk2023060901/xdooria-social/pkg/cache/lru"
	"github.com/lk2023060901/xdooria-social/pkg/security"
)

// Config Redis 平台配置
type Config struct {
	// LoginToken 本地玩家的登录凭证（JWT），Authenticate 时校验
	LoginToken string `mapstructure:"login_token" json:"-"`

	// JWT 登录凭证的签名配置
	JWT security.JWTConfig `mapstructure:"jwt" json:"jwt"`

	// RequestsPerSecond 每秒最多发往 Redis 的平台请求数
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" validate:"gt=0"`

	// Burst 突发容量
	Burst int `mapstructure:"burst" json:"burst" validate:"min=1"`

	// Workers 执行平台请求的协程数
	Workers int `mapstructure:"workers" json:"workers" validate:"min=1"`

	// ScoreFormat 分数展示格式
	ScoreFormat string `mapstructure:"score_format" json:"score_format" validate:"required"`

	// Lock 成就写入锁配置
	Lock LockConfig `mapstructure:"lock" json:"lock"`

	// ProfileCache 玩家资料缓存，TTL 内别名修改可能不可见
	ProfileCache lru.Config `mapstructure:"profile_cache" json:"profile_cache"`
}

// LockConfig 分布式锁配置
type LockConfig struct {
	TTL           time.Duration `mapstructure:"ttl" json:"ttl" validate:"gt=0"`
	RetryInterval time.Duration `mapstructure:"retry_interval" json:"retry_interval" validate:"gt=0"`
	MaxRetries    int           `mapstructure:"max_retries" json:"max_retries" validate:"min=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWT:               *security.DefaultJWTConfig(),
		RequestsPerSecond: 50,
		Burst:             100,
		Workers:           8,
		ScoreFormat:       "%d",
		Lock: LockConfig{
			TTL:           3 * time.Second,
			RetryInterval: 20 * time.Millisecond,
			MaxRetries:    50,
		},
		ProfileCache: lru.Config{
			MaxSize: 1024,
			TTL:     30 * time.Second,
		},
	}
}
