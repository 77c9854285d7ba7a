// Package lru 提供带过期时间的泛型 LRU 缓存。
package lru

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/xdooria-social/pkg/config"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// Config LRU 配置
type Config struct {
	// MaxSize 最大条目数，超出后淘汰最久未使用的条目
	MaxSize int `mapstructure:"max_size" json:"max_size" validate:"min=1"`

	// TTL 默认过期时间，负数表示不过期
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`

	// CleanupInterval 后台清理过期条目的间隔，0 表示只在访问时清理
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" json:"cleanup_interval" validate:"min=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxSize: 1024,
		TTL:     time.Minute,
	}
}

// Stats 命中统计
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // 零值表示不过期
}

// Cache 并发安全的 LRU 缓存
type Cache[K comparable, V any] struct {
	cfg     *Config
	now     func() time.Time
	onEvict func(key K, value V)

	mu    sync.Mutex
	ll    *list.List
	items map[K]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	stop    chan struct{}
	cleaner *conc.Future[struct{}]
	closed  atomic.Bool
}

// Option 缓存选项
type Option[K comparable, V any] func(*Cache[K, V])

// WithOnEvict 条目因容量或过期被移除时回调，回调在持锁状态下执行
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// WithClock 设置时间源
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.now = now
	}
}

// New 创建缓存
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("lru: merge config: %w", err)
	}
	if err := config.Validate(newCfg); err != nil {
		return nil, fmt.Errorf("lru: invalid config: %w", err)
	}

	c := &Cache[K, V]{
		cfg:   newCfg,
		now:   time.Now,
		ll:    list.New(),
		items: make(map[K]*list.Element),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if newCfg.CleanupInterval > 0 {
		c.cleaner = conc.Go(func() (struct{}, error) {
			ticker := time.NewTicker(newCfg.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.RemoveExpired()
				case <-c.stop:
					return struct{}{}, nil
				}
			}
		})
	}
	return c, nil
}

// Get 读取条目，过期条目视为不存在并被移除
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !c.expired(ent) {
			c.ll.MoveToFront(elem)
			c.hits.Add(1)
			return ent.value, true
		}
		c.removeElement(elem)
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set 使用默认 TTL 写入
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.cfg.TTL)
}

// SetWithTTL 写入条目，ttl 为负数时不过期
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	var expiresAt time.Time
	if ttl >= 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(elem)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.ll.Len() > c.cfg.MaxSize {
		c.removeElement(c.ll.Back())
	}
}

// Delete 删除条目，不触发淘汰回调
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.ll.Remove(elem)
		delete(c.items, key)
	}
}

// RemoveExpired 移除全部过期条目，返回移除数量
func (c *Cache[K, V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		if c.expired(e.Value.(*entry[K, V])) {
			c.removeElement(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Len 当前条目数，包含尚未清理的过期条目
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge 清空缓存
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// Stats 命中统计
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close 停止后台清理，可重复调用
func (c *Cache[K, V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.stop)
	if c.cleaner != nil {
		_ = c.cleaner.Err()
	}
	return nil
}

func (c *Cache[K, V]) expired(ent *entry[K, V]) bool {
	return !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt)
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	c.ll.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
