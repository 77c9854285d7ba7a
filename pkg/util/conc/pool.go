package conc

import (
	"fmt"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
)

// poolOption 协程池选项
type poolOption struct {
	preAlloc       bool
	nonBlocking    bool
	expiryDuration time.Duration
	panicHandler   func(any)
}

func defaultPoolOption() *poolOption {
	return &poolOption{
		preAlloc:       false,
		nonBlocking:    false,
		expiryDuration: time.Second,
	}
}

// PoolOption 协程池配置函数
type PoolOption func(*poolOption)

// WithPreAlloc 是否预分配 worker 队列
func WithPreAlloc(v bool) PoolOption {
	return func(o *poolOption) {
		o.preAlloc = v
	}
}

// WithNonBlocking 池满时是否立即返回错误
func WithNonBlocking(v bool) PoolOption {
	return func(o *poolOption) {
		o.nonBlocking = v
	}
}

// WithExpiryDuration 空闲 worker 回收间隔
func WithExpiryDuration(d time.Duration) PoolOption {
	return func(o *poolOption) {
		o.expiryDuration = d
	}
}

// WithPanicHandler 自定义 panic 处理
func WithPanicHandler(fn func(any)) PoolOption {
	return func(o *poolOption) {
		o.panicHandler = fn
	}
}

// Pool 基于 ants 的泛型协程池，提交任务返回 Future。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建指定容量的协程池。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	antsOpts := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithExpiryDuration(opt.expiryDuration),
	}
	if opt.panicHandler != nil {
		antsOpts = append(antsOpts, ants.WithPanicHandler(opt.panicHandler))
	}

	inner, err := ants.NewPool(cap, antsOpts...)
	if err != nil {
		panic(err)
	}

	return &Pool[T]{
		inner: inner,
		opt:   opt,
	}
}

// NewDefaultPool 按 CPU 数创建协程池。
func NewDefaultPool[T any](opts ...PoolOption) *Pool[T] {
	return NewPool[T](runtime.GOMAXPROCS(0)*4, opts...)
}

// Submit 提交任务，任务中的 panic 会转换为 Future 的错误。
func (p *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	f := newFuture[T]()
	err := p.inner.Submit(func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.complete(zero, fmt.Errorf("conc: panic recovered: %v", r))
				return
			}
			f.complete(value, err)
		}()
		value, err = method()
	})
	if err != nil {
		var zero T
		f.complete(zero, fmt.Errorf("conc: submit failed: %w", err))
	}
	return f
}

// Cap 返回池容量。
func (p *Pool[T]) Cap() int {
	return p.inner.Cap()
}

// Running 返回正在运行的 worker 数量。
func (p *Pool[T]) Running() int {
	return p.inner.Running()
}

// Free 返回空闲容量。
func (p *Pool[T]) Free() int {
	return p.inner.Free()
}

// Release 释放协程池。
func (p *Pool[T]) Release() {
	p.inner.Release()
}

// ReleaseTimeout 在超时内等待所有 worker 退出。
func (p *Pool[T]) ReleaseTimeout(timeout time.Duration) error {
	return p.inner.ReleaseTimeout(timeout)
}
