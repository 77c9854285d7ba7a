package social

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/config"
)

// DefaultLeaderboard 未指定排行榜时使用的 category
const DefaultLeaderboard = "com.companyname.category.leaderboard"

// Config Helper 配置
type Config struct {
	// DefaultLeaderboard 默认排行榜 category
	DefaultLeaderboard string `mapstructure:"default_leaderboard" json:"default_leaderboard" validate:"required"`

	// ScorePageSize 未指定长度时每次拉取的分数条数
	ScorePageSize int `mapstructure:"score_page_size" json:"score_page_size" validate:"min=1,max=100"`

	// MaxQueuedPerKind 同类请求在途时最多排队的数量，超出后丢弃。
	// 零值会被默认值覆盖，负数表示不排队
	MaxQueuedPerKind int `mapstructure:"max_queued_per_kind" json:"max_queued_per_kind" validate:"min=-1"`

	// CallTimeout 单次平台调用的等待上限，0 表示一直等待
	CallTimeout time.Duration `mapstructure:"call_timeout" json:"call_timeout" validate:"min=0"`

	// DispatchBuffer 通知队列初始容量
	DispatchBuffer int `mapstructure:"dispatch_buffer" json:"dispatch_buffer" validate:"min=1"`

	// PoolSize 等待平台结果的协程池容量，至少覆盖全部请求类型
	PoolSize int `mapstructure:"pool_size" json:"pool_size" validate:"min=12"`

	// MetricsNamespace 指标命名空间
	MetricsNamespace string `mapstructure:"metrics_namespace" json:"metrics_namespace" validate:"required"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		DefaultLeaderboard: DefaultLeaderboard,
		ScorePageSize:      25,
		MaxQueuedPerKind:   8,
		CallTimeout:        0,
		DispatchBuffer:     64,
		PoolSize:           32,
		MetricsNamespace:   "social",
	}
}

// resolveConfig 合并默认配置并校验
func resolveConfig(cfg *Config) (*Config, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "social: merge config")
	}
	if err := config.Validate(merged); err != nil {
		return nil, errors.Wrap(err, "social: invalid config")
	}
	return merged, nil
}
