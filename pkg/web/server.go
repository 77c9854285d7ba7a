// Package web 基于 gin 的 HTTP 服务，实现 app.Server 生命周期
package web

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/xdooria-social/pkg/config"
	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/otel"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
	"github.com/lk2023060901/xdooria-social/pkg/web/middleware"
)

type serverOptions struct {
	logger         logger.Logger
	registerer     prometheus.Registerer
	namespace      string
	tracerProvider otel.TracerProvider
}

// Option Server 选项
type Option func(*serverOptions)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithRegisterer 启用 HTTP 指标并注册到 reg
func WithRegisterer(reg prometheus.Registerer, namespace string) Option {
	return func(o *serverOptions) {
		o.registerer = reg
		o.namespace = namespace
	}
}

// WithTracerProvider 设置请求 span 使用的 TracerProvider
func WithTracerProvider(tp otel.TracerProvider) Option {
	return func(o *serverOptions) {
		o.tracerProvider = tp
	}
}

// Server Web 服务
type Server struct {
	engine  *gin.Engine
	config  *Config
	logger  logger.Logger
	limiter *middleware.RateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	serving  *conc.Future[struct{}]
}

// NewServer 创建 Web 服务并挂载基础中间件
func NewServer(cfg *Config, opts ...Option) (*Server, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "web: merge config")
	}
	if err := newCfg.Validate(); err != nil {
		return nil, errors.Mark(err, ErrInvalidConfig)
	}

	o := &serverOptions{logger: logger.NewNoop()}
	for _, opt := range opts {
		opt(o)
	}
	l := o.logger.Named("web.server")

	registerTagNameFunc()
	gin.SetMode(newCfg.Mode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(l),
		middleware.Tracing(o.tracerProvider, newCfg.ServiceName),
		middleware.Logger(l),
	)

	s := &Server{engine: engine, config: newCfg, logger: l}

	if o.registerer != nil {
		m, err := middleware.NewMetrics(o.registerer, o.namespace)
		if err != nil {
			return nil, err
		}
		engine.Use(m.Handler())
	}
	if newCfg.CORS.Enabled {
		engine.Use(middleware.CORS(&newCfg.CORS))
	}
	if newCfg.RateLimit.Enabled {
		s.limiter, err = middleware.NewRateLimiter(&newCfg.RateLimit, l)
		if err != nil {
			return nil, err
		}
		engine.Use(middleware.RateLimit(s.limiter))
	}
	return s, nil
}

// Router 返回 gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Config 返回合并后的配置
func (s *Server) Config() *Config {
	return s.config
}

// Start 开始监听，请求 context 派生自 ctx
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.Wrapf(err, "web: listen %s", s.config.Addr)
	}

	srv := &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}
	s.server = srv
	s.listener = ln
	s.serving = conc.Go(func() (struct{}, error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	s.logger.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 在 ShutdownTimeout 内优雅关闭
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, serving := s.server, s.serving
	s.server, s.listener, s.serving = nil, nil, nil
	s.mu.Unlock()

	if srv == nil {
		return ErrServerNotStarted
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	var errs error
	if err := srv.Shutdown(ctx); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "web: shutdown"))
	}
	errs = errors.CombineErrors(errs, serving.Err())
	if s.limiter != nil {
		errs = errors.CombineErrors(errs, s.limiter.Close())
	}

	s.logger.Info("http server stopped")
	return errs
}
