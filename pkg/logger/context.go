package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 不提取任何字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

type fieldsKey struct{}

// ContextWithFields 把 key-value 对挂到 context 上，
// 之后通过 *Context 日志方法输出时会自动带上这些字段。
// 同名 key 以后写入的为准。
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	if len(keysAndValues) < 2 {
		return ctx
	}

	prev, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	fields := make([]zap.Field, 0, len(prev)+len(keysAndValues)/2)
	fields = append(fields, prev...)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		replaced := false
		for j := range fields {
			if fields[j].Key == key {
				fields[j] = zap.Any(key, keysAndValues[i+1])
				replaced = true
				break
			}
		}
		if !replaced {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		}
	}

	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FieldsFromContext 提取 ContextWithFields 挂载的字段
func FieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, len(fields))
	copy(out, fields)
	return out
}
