package scenario

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/config"
)

// PlayerSeed 预置玩家及其历史最好成绩
type PlayerSeed struct {
	ID          string `mapstructure:"id"`
	Alias       string `mapstructure:"alias"`
	DisplayName string `mapstructure:"display_name"`
	Score       int64  `mapstructure:"score"`
	// DaysAgo 成绩写入时间距今的天数
	DaysAgo int `mapstructure:"days_ago"`
}

// Config 演示流程配置
type Config struct {
	// LocalPlayer 以该玩家身份登录
	LocalPlayer string `mapstructure:"local_player" validate:"required"`

	Players []PlayerSeed `mapstructure:"players"`

	// Friends 玩家 ID 到好友 ID 列表，关系是双向的
	Friends map[string][]string `mapstructure:"friends"`

	// Achievements 每轮上报的成就进度
	Achievements map[string]float64 `mapstructure:"achievements"`

	// SubmitScore 每轮提交的分数，每轮递增 ScoreStep
	SubmitScore int64 `mapstructure:"submit_score"`
	ScoreStep   int64 `mapstructure:"score_step"`

	// Rounds 执行轮数，负数表示直到退出
	Rounds int `mapstructure:"rounds" validate:"min=-1"`

	// Schedule 后续轮次的 cron 表达式，第一轮在启动时立即执行。
	// 上一轮未结束时到期的触发被跳过
	Schedule string `mapstructure:"schedule" validate:"required"`

	// StepTimeout 等待单个通知的上限
	StepTimeout time.Duration `mapstructure:"step_timeout" validate:"gt=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		LocalPlayer: "ann",
		Players: []PlayerSeed{
			{ID: "ann", Alias: "Ann", DisplayName: "Ann A.", Score: 500},
			{ID: "bo", Alias: "Bo", Score: 300, DaysAgo: 3},
			{ID: "cy", Alias: "Cy", Score: 900, DaysAgo: 30},
		},
		Friends:      map[string][]string{"ann": {"bo"}},
		Achievements: map[string]float64{"first_blood": 100, "collector": 40},
		SubmitScore:  650,
		ScoreStep:    50,
		Rounds:       1,
		Schedule:     "@every 5s",
		StepTimeout:  5 * time.Second,
	}
}

// Resolve 合并默认配置并校验
func Resolve(cfg *Config) (*Config, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "scenario: merge config")
	}
	if err := config.Validate(merged); err != nil {
		return nil, errors.Wrap(err, "scenario: invalid config")
	}
	return merged, nil
}
