package otel

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/lk2023060901/xdooria-social/pkg/config"
)

// Provider 追踪提供者
type Provider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

type providerOptions struct {
	writer     io.Writer
	processors []sdktrace.SpanProcessor
	global     bool
}

// Option Provider 选项
type Option func(*providerOptions)

// WithWriter 设置 stdout 导出器的输出
func WithWriter(w io.Writer) Option {
	return func(o *providerOptions) {
		o.writer = w
	}
}

// WithSpanProcessor 追加 span 处理器
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *providerOptions) {
		o.processors = append(o.processors, p)
	}
}

// WithGlobal 是否设置为全局 TracerProvider
func WithGlobal(v bool) Option {
	return func(o *providerOptions) {
		o.global = v
	}
}

// New 创建追踪提供者，未启用时 Tracer 返回 noop 实现
func New(cfg *Config, opts ...Option) (*Provider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("otel: merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	o := &providerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if !newCfg.Enabled {
		return &Provider{config: newCfg}, nil
	}

	sdkOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(newCfg)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(newCfg.SampleRatio))),
	}

	exporter, err := createExporter(newCfg, o.writer)
	if err != nil {
		return nil, fmt.Errorf("otel: create exporter: %w", err)
	}
	if exporter != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(newCfg.BatchTimeout),
		))
	}
	for _, p := range o.processors {
		sdkOpts = append(sdkOpts, sdktrace.WithSpanProcessor(p))
	}

	provider := sdktrace.NewTracerProvider(sdkOpts...)
	if o.global {
		otel.SetTracerProvider(provider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	return &Provider{
		config:   newCfg,
		provider: provider,
	}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// TracerProvider 返回可注入业务组件的 TracerProvider
func (p *Provider) TracerProvider() TracerProvider {
	if p.provider == nil {
		return noop.NewTracerProvider()
	}
	return p.provider
}

// Tracer 获取指定名称的 Tracer
func (p *Provider) Tracer(name string) Tracer {
	return p.TracerProvider().Tracer(name)
}

// IsEnabled 是否启用
func (p *Provider) IsEnabled() bool {
	return p.provider != nil
}

// ForceFlush 导出所有未导出的 span
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.ForceFlush(ctx)
}

// Shutdown 关闭提供者
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 使用配置的超时关闭
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}
