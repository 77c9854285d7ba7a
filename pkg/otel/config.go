package otel

import "time"

// Config TracerProvider 配置
type Config struct {
	// Enabled 是否启用追踪
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// ServiceName 服务名称
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`

	// ExporterType 导出器类型: "stdout", "noop"
	ExporterType ExporterType `mapstructure:"exporter_type" json:"exporter_type" yaml:"exporter_type"`

	// PrettyPrint stdout 导出器是否格式化输出
	PrettyPrint bool `mapstructure:"pretty_print" json:"pretty_print" yaml:"pretty_print"`

	// SampleRatio 采样比率（0.0-1.0），1 表示全部采样
	SampleRatio float64 `mapstructure:"sample_ratio" json:"sample_ratio" yaml:"sample_ratio"`

	// BatchTimeout 批量导出间隔
	BatchTimeout time.Duration `mapstructure:"batch_timeout" json:"batch_timeout" yaml:"batch_timeout"`

	// Attributes 资源属性
	Attributes map[string]string `mapstructure:"attributes" json:"attributes" yaml:"attributes"`

	// ShutdownTimeout 关闭超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	// ExporterTypeStdout 输出到 writer，调试用
	ExporterTypeStdout ExporterType = "stdout"

	// ExporterTypeNoop 不导出
	ExporterTypeNoop ExporterType = "noop"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:         false,
		ServiceName:     "xdooria-social",
		ExporterType:    ExporterTypeStdout,
		SampleRatio:     1.0,
		BatchTimeout:    5 * time.Second,
		Attributes:      make(map[string]string),
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return ErrInvalidSamplerRatio
	}
	switch c.ExporterType {
	case ExporterTypeStdout, ExporterTypeNoop:
	default:
		return ErrUnsupportedExporter
	}
	return nil
}
