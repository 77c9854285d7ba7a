// Package otel 封装 OpenTelemetry 追踪，业务代码通过本包使用 span 而不直接依赖 SDK。
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 重导出常用类型
type (
	// Span 追踪 span
	Span = trace.Span

	// Tracer 创建 span
	Tracer = trace.Tracer

	// TracerProvider 提供 Tracer
	TracerProvider = trace.TracerProvider

	// SpanKind span 类型
	SpanKind = trace.SpanKind

	// SpanStartOption span 启动选项
	SpanStartOption = trace.SpanStartOption

	// Attribute 属性键值对
	Attribute = attribute.KeyValue

	// Code 状态码
	Code = codes.Code
)

const (
	SpanKindInternal = trace.SpanKindInternal
	SpanKindClient   = trace.SpanKindClient
	SpanKindServer   = trace.SpanKindServer
)

const (
	CodeUnset = codes.Unset
	CodeError = codes.Error
	CodeOk    = codes.Ok
)

// GetTracerProvider 获取全局 TracerProvider，未初始化时为 noop
func GetTracerProvider() TracerProvider {
	return otel.GetTracerProvider()
}

// GetTextMapPropagator 获取全局传播器
func GetTextMapPropagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// TraceIDFromContext 返回 context 中 span 的 trace id，没有有效 span 时为空串
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// WithSpanKind 设置 span 类型
func WithSpanKind(kind SpanKind) SpanStartOption {
	return trace.WithSpanKind(kind)
}

// WithAttributes 设置 span 属性
func WithAttributes(attrs ...Attribute) SpanStartOption {
	return trace.WithAttributes(attrs...)
}

// 属性构造函数
var (
	String  = attribute.String
	Int     = attribute.Int
	Int64   = attribute.Int64
	Float64 = attribute.Float64
	Bool    = attribute.Bool
)
