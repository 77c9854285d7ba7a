// Package conc 提供基于 Future 的并发原语，统一项目内的 goroutine 启动与结果等待方式。
package conc

import (
	"fmt"
	"sync"
)

// Future 表示一个异步计算的结果。
type Future[T any] struct {
	ch    chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

// complete 设置结果，只有第一次调用生效。
func (f *Future[T]) complete(value T, err error) bool {
	done := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.ch)
		done = true
	})
	return done
}

// Await 阻塞等待结果。
func (f *Future[T]) Await() (T, error) {
	<-f.ch
	return f.value, f.err
}

// Value 阻塞等待并返回值（忽略错误）。
func (f *Future[T]) Value() T {
	<-f.ch
	return f.value
}

// Err 阻塞等待并返回错误。
func (f *Future[T]) Err() error {
	<-f.ch
	return f.err
}

// OK 阻塞等待，返回是否成功。
func (f *Future[T]) OK() bool {
	<-f.ch
	return f.err == nil
}

// Done 非阻塞地检查是否已完成。
func (f *Future[T]) Done() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Inner 返回完成信号 channel，可用于 select。
func (f *Future[T]) Inner() <-chan struct{} {
	return f.ch
}

// Go 在新的 goroutine 中执行 fn 并返回其 Future。
// fn 中的 panic 会被捕获并转换为错误。
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
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
		value, err = fn()
	}()
	return f
}

// Resolved 返回一个已经成功完成的 Future。
func Resolved[T any](value T) *Future[T] {
	f := newFuture[T]()
	f.complete(value, nil)
	return f
}

// Failed 返回一个已经以错误完成的 Future。
func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

// Promise 由回调式 API 手动完成的 Future 句柄。
type Promise[T any] struct {
	future *Future[T]
}

// NewPromise 创建一个 Promise。
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{future: newFuture[T]()}
}

// Future 返回关联的 Future。
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Resolve 以值完成，重复调用返回 false。
func (p *Promise[T]) Resolve(value T) bool {
	return p.future.complete(value, nil)
}

// Reject 以错误完成，重复调用返回 false。
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.future.complete(zero, err)
}

// Complete 同时传入值和错误，适配 func(T, error) 形式的回调。
func (p *Promise[T]) Complete(value T, err error) bool {
	return p.future.complete(value, err)
}

// AwaitAll 等待所有 Future 完成，返回第一个错误。
func AwaitAll[T any](futures ...*Future[T]) error {
	var firstErr error
	for _, f := range futures {
		if f == nil {
			continue
		}
		if err := f.Err(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
