package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-social/app/playground/internal/scenario"
	"github.com/lk2023060901/xdooria-social/pkg/app"
	"github.com/lk2023060901/xdooria-social/pkg/database/redis"
	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/otel"
	"github.com/lk2023060901/xdooria-social/pkg/prometheus"
	"github.com/lk2023060901/xdooria-social/pkg/security"
	"github.com/lk2023060901/xdooria-social/pkg/sentry"
	"github.com/lk2023060901/xdooria-social/pkg/serializer"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/social/redisplatform"
	"github.com/lk2023060901/xdooria-social/pkg/web"
)

// RedisConfig Redis 连接配置，Embedded 为 true 时启动进程内 Redis
type RedisConfig struct {
	redis.Config `mapstructure:",squash"`
	Embedded     bool `mapstructure:"embedded"`

	// Codec 对象载荷的压缩与校验
	Codec serializer.EnvelopeConfig `mapstructure:"codec"`
}

// ControlConfig 调试 HTTP 接口配置
type ControlConfig struct {
	web.Config `mapstructure:",squash"`
	// JWT 密钥非空时 /v1 下的接口需要 Bearer 令牌
	JWT security.JWTConfig `mapstructure:"jwt"`
}

// Config playground 完整配置
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	Redis RedisConfig `mapstructure:"redis"`

	// Social Helper 配置
	Social social.Config `mapstructure:"social"`

	// Platform Redis 平台配置
	Platform redisplatform.Config `mapstructure:"platform"`

	Tracing    otel.Config       `mapstructure:"tracing"`
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// Sentry LastError 上报
	Sentry sentry.Config `mapstructure:"sentry"`

	Control ControlConfig `mapstructure:"control"`

	// Scenario 演示流程
	Scenario scenario.Config `mapstructure:"scenario"`
}

func main() {
	var cfg Config

	fs := pflag.NewFlagSet("playground", pflag.ExitOnError)
	fs.String("log.level", "info", "log level")
	fs.Bool("redis.embedded", true, "run an in-process redis instead of connecting")
	fs.Int("scenario.rounds", 1, "rounds to run, -1 runs until interrupted")

	// 1. 加载配置
	path, err := app.LoadConfig(&cfg, fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	// 2. 初始化主日志，登录凭证不落日志
	l, err := logger.New(&cfg.Log, logger.WithHooks(logger.SensitiveDataHook([]string{"login_token", "secret_key", "dsn"})))
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	l.Info("config loaded", "path", path)

	// 3. 组装组件
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		_ = l.Sync()
		os.Exit(1)
	}
	defer cleanup()

	// 4. 运行直到演示结束或收到信号
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
