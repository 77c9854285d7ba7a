package main

import (
	"context"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/app/playground/internal/control"
	"github.com/lk2023060901/xdooria-social/app/playground/internal/scenario"
	"github.com/lk2023060901/xdooria-social/pkg/app"
	"github.com/lk2023060901/xdooria-social/pkg/config"
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
	"github.com/lk2023060901/xdooria-social/pkg/web/middleware"
)

// InitApp 按依赖顺序创建组件并注册到应用，返回的 cleanup 处理 Run 之前的失败路径
func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	base := app.NewBaseApp(
		app.WithName("playground"),
		app.WithLogger(l),
		app.WithNamedLoggers(cfg.Loggers),
	)

	var closers []app.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
	fail := func(err error) (app.Application, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	// 1. Redis
	if cfg.Redis.Embedded {
		mr, err := miniredis.Run()
		if err != nil {
			return fail(errors.Wrap(err, "start embedded redis"))
		}
		closers = append(closers, app.CloserFunc(func() error { mr.Close(); return nil }))

		port, _ := strconv.Atoi(mr.Port())
		cfg.Redis.Standalone = &redis.NodeConfig{Host: mr.Host(), Port: port}
		cfg.Redis.Cluster = nil
		l.Info("embedded redis started", "addr", mr.Addr())
	}
	codecCfg, err := config.MergeConfig(serializer.DefaultEnvelopeConfig(), &cfg.Redis.Codec)
	if err != nil {
		return fail(errors.Wrap(err, "merge redis codec config"))
	}
	codec, err := serializer.NewEnvelope(serializer.NewMsgpack(), codecCfg)
	if err != nil {
		return fail(errors.Wrap(err, "create redis codec"))
	}
	client, err := redis.NewClient(&cfg.Redis.Config, redis.WithSerializer(codec))
	if err != nil {
		return fail(errors.Wrap(err, "create redis client"))
	}
	closers = append(closers, client)

	// 2. 可观测性
	tracing, err := otel.New(&cfg.Tracing, otel.WithGlobal(true))
	if err != nil {
		return fail(errors.Wrap(err, "create tracer provider"))
	}
	closers = append(closers, tracing)

	metrics, err := prometheus.New(&cfg.Prometheus, prometheus.WithLogger(l))
	if err != nil {
		return fail(errors.Wrap(err, "create prometheus client"))
	}
	closers = append(closers, metrics)

	reporter, err := sentry.New(&cfg.Sentry, sentry.WithLogger(l))
	if err != nil {
		return fail(errors.Wrap(err, "create sentry client"))
	}
	closers = append(closers, reporter)

	// 3. 平台与 Helper
	platform, err := redisplatform.New(&cfg.Platform, client, redisplatform.WithLogger(base.Logger("platform")))
	if err != nil {
		return fail(errors.Wrap(err, "create redis platform"))
	}
	closers = append(closers, app.CloserFunc(func() error { platform.Close(); return nil }))

	scenarioCfg, err := scenario.Resolve(&cfg.Scenario)
	if err != nil {
		return fail(err)
	}
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := scenario.Seed(seedCtx, platform, leaderboardOf(cfg), scenarioCfg, time.Now()); err != nil {
		return fail(err)
	}
	// 配置中的凭证优先于演示签发的凭证
	if cfg.Platform.LoginToken != "" {
		platform.SetLoginToken(cfg.Platform.LoginToken)
	}

	listener := scenario.NewLoggingListener(l, 64)
	helper, err := social.New(&cfg.Social, platform,
		social.WithLogger(base.Logger("social")),
		social.WithListener(listener),
		social.WithRegisterer(metrics.Registry()),
		social.WithTracerProvider(tracing.TracerProvider()),
		social.WithErrorReporter(social.ErrorReporterFunc(func(rec social.ErrorRecord) {
			reporter.CaptureException(rec.Err, map[string]string{
				"error_kind":   rec.Kind.String(),
				"request_kind": rec.Op.String(),
			})
		})),
	)
	if err != nil {
		return fail(errors.Wrap(err, "create social helper"))
	}
	closers = append(closers, helper)

	// 4. 演示流程，结束后让应用退出
	runner := scenario.NewRunner(scenarioCfg, helper, listener, l, scenario.WithOnFinish(base.Stop))

	base.AppendServer(runner)

	// 5. 调试 HTTP 接口
	if cfg.Control.Enabled {
		srv, err := newControlServer(cfg, base.Logger("control"), helper, metrics, tracing)
		if err != nil {
			return fail(err)
		}
		base.AppendServer(srv)
	}

	base.AppendCloser(closers...)
	return base, func() {}, nil
}

func newControlServer(cfg *Config, l logger.Logger, helper *social.Helper, metrics *prometheus.Client, tracing *otel.Provider) (*web.Server, error) {
	srv, err := web.NewServer(&cfg.Control.Config,
		web.WithLogger(l),
		web.WithRegisterer(metrics.Registry(), "playground"),
		web.WithTracerProvider(tracing.TracerProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create control server")
	}

	var auth gin.HandlerFunc
	if cfg.Control.JWT.SecretKey != "" {
		jwtm, err := security.NewJWTManager(&cfg.Control.JWT)
		if err != nil {
			return nil, errors.Wrap(err, "create control jwt manager")
		}
		auth = middleware.Auth(&middleware.AuthConfig{JWTManager: jwtm, Logger: l})
	}
	control.New(helper, l).Register(srv.Router(), auth)
	return srv, nil
}

func leaderboardOf(cfg *Config) string {
	if cfg.Social.DefaultLeaderboard != "" {
		return cfg.Social.DefaultLeaderboard
	}
	return social.DefaultLeaderboard
}
