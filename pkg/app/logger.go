package app

import (
	"sync"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
)

// LoggerRegistry 具名日志注册表
type LoggerRegistry struct {
	mu      sync.RWMutex
	base    logger.Logger
	loggers map[string]logger.Logger
}

// NewLoggerRegistry 创建注册表，未注册的名称从 base 派生
func NewLoggerRegistry(base logger.Logger) *LoggerRegistry {
	return &LoggerRegistry{
		base:    base,
		loggers: make(map[string]logger.Logger),
	}
}

// Register 注册具名日志
func (r *LoggerRegistry) Register(name string, l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers[name] = l
}

// Get 获取具名日志，不存在时派生并缓存
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	l, ok := r.loggers[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l
	}
	l = r.base.Named(name)
	r.loggers[name] = l
	return l
}

// SyncAll 刷新全部日志
func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loggers {
		_ = l.Sync()
	}
}

// InitLoggers 按配置创建具名日志，覆盖同名的派生日志
func (r *LoggerRegistry) InitLoggers(configs map[string]*logger.Config) error {
	for name, cfg := range configs {
		l, err := logger.New(cfg)
		if err != nil {
			return err
		}
		r.Register(name, l.Named(name))
	}
	return nil
}
