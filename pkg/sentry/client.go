// Package sentry 把运行期错误上报到 Sentry，未启用时所有上报为空操作。
package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/lk2023060901/xdooria-social/pkg/config"
	"github.com/lk2023060901/xdooria-social/pkg/logger"
)

// Client Sentry 客户端
type Client struct {
	client *sentry.Client
	scope  *sentry.Scope // 全局标签，每次上报时克隆
	config *Config
	logger logger.Logger
	closed atomic.Bool

	stats struct {
		eventsTotal    atomic.Uint64
		eventsCaptured atomic.Uint64
		eventsDropped  atomic.Uint64
	}
}

// Stats 上报统计
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
	EventsDropped  uint64
}

type clientOptions struct {
	transport sentry.Transport
	logger    logger.Logger
}

// Option Client 选项
type Option func(*clientOptions)

// WithTransport 替换事件发送方式
func WithTransport(t sentry.Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("sentry: merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{logger: logger.NewNoop()}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{
		config: newCfg,
		logger: o.logger.Named("sentry"),
	}
	if !newCfg.Enabled {
		return c, nil
	}

	clientOpts := newCfg.toClientOptions()
	clientOpts.Transport = o.transport
	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("sentry: create client: %w", err)
	}

	scope := sentry.NewScope()
	scope.SetTags(newCfg.Tags)

	c.client = client
	c.scope = scope
	c.logger.Info("sentry client created", "environment", newCfg.Environment)
	return c, nil
}

// IsEnabled 是否启用
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

// CaptureException 上报错误，tags 只作用于本次事件
func (c *Client) CaptureException(err error, tags map[string]string) *sentry.EventID {
	if c.client == nil || c.closed.Load() || err == nil {
		return nil
	}

	c.stats.eventsTotal.Add(1)

	scope := c.scope.Clone()
	scope.SetTags(tags)
	eventID := c.client.CaptureException(err, nil, scope)
	if eventID == nil || *eventID == "" {
		c.stats.eventsDropped.Add(1)
		return nil
	}

	c.stats.eventsCaptured.Add(1)
	c.logger.Debug("exception captured", "event_id", string(*eventID))
	return eventID
}

// Flush 等待已上报的事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	if c.client == nil {
		return true
	}
	return c.client.Flush(timeout)
}

// Close 刷新并关闭客户端
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	if c.client != nil && !c.client.Flush(c.config.ShutdownTimeout) {
		c.logger.Warn("sentry flush timed out", "timeout", c.config.ShutdownTimeout)
	}
	return nil
}

// Stats 上报统计
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.stats.eventsTotal.Load(),
		EventsCaptured: c.stats.eventsCaptured.Load(),
		EventsDropped:  c.stats.eventsDropped.Load(),
	}
}
