package logger

import (
	"context"
	"sync"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// InitDefault 使用配置初始化默认 logger
func InitDefault(cfg *Config, opts ...Option) error {
	l, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	SetDefault(l)
	return nil
}

// SetDefault 设置默认 logger，传入 nil 会恢复为懒加载的控制台 logger
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default 获取默认 logger
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		bl, err := New(DefaultConfig())
		if err != nil {
			defaultLogger = NewNoop()
		} else {
			defaultLogger = bl
		}
	}
	return defaultLogger
}

func Debug(msg string, keysAndValues ...interface{}) { Default().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...interface{})  { Default().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...interface{})  { Default().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...interface{}) { Default().Error(msg, keysAndValues...) }

func InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().InfoContext(ctx, msg, keysAndValues...)
}

func ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().ErrorContext(ctx, msg, keysAndValues...)
}

func Named(name string) Logger { return Default().Named(name) }

func Sync() error { return Default().Sync() }
