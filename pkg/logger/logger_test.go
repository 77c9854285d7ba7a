package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBufferLogger(t *testing.T, cfg *Config, opts ...Option) (*BaseLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Format = JSONFormat
	l, err := New(cfg, append(opts, WithWriter(buf))...)
	require.NoError(t, err)
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = New(&Config{EnableFile: true})
	assert.ErrorIs(t, err, ErrInvalidOutputPath)
}

func TestLoggerKeyValues(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Level: DebugLevel})

	l.Debug("lane queued", "kind", "submit_score", "depth", 2)
	l.Info("typed field", zap.String("category", "board"))
	l.Warn("odd args", "dangling")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "submit_score", lines[0]["kind"])
	assert.EqualValues(t, 2, lines[0]["depth"])
	assert.Equal(t, "board", lines[1]["category"])
	assert.Equal(t, "dangling", lines[2]["!BADKEY"])
}

func TestLoggerLevelFilter(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Level: WarnLevel})

	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestLoggerNamedAndWithFields(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{GlobalFields: map[string]interface{}{"service": "social"}})

	child := l.Named("social").Named("coordinator").WithFields("session", 7)
	child.Info("hello")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "social.coordinator", lines[0]["logger"])
	assert.EqualValues(t, 7, lines[0]["session"])
	assert.Equal(t, "social", lines[0]["service"])
}

func TestLoggerContextFields(t *testing.T) {
	l, buf := newBufferLogger(t, nil)

	ctx := ContextWithFields(context.Background(), "request_id", "r-1", "request_kind", "friends")
	ctx = ContextWithFields(ctx, "request_id", "r-2")
	l.InfoContext(ctx, "dispatched", "extra", true)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "r-2", lines[0]["request_id"])
	assert.Equal(t, "friends", lines[0]["request_kind"])
	assert.Equal(t, true, lines[0]["extra"])
}

func TestLoggerCustomContextExtractor(t *testing.T) {
	extractor := func(ctx context.Context) []zap.Field {
		return []zap.Field{zap.String("trace", "fixed")}
	}
	l, buf := newBufferLogger(t, nil, WithContextExtractor(extractor))

	l.ErrorContext(context.Background(), "failed")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "fixed", lines[0]["trace"])
}

func TestSensitiveDataHook(t *testing.T) {
	l, buf := newBufferLogger(t, nil, WithHooks(SensitiveDataHook([]string{"login_token"})))

	l.Info("authenticate", "login_token", "eyJhbGciOi", "player", "p1")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "***REDACTED***", lines[0]["login_token"])
	assert.Equal(t, "p1", lines[0]["player"])
}

func TestDropHook(t *testing.T) {
	drop := HookFunc(func(entry Entry, fields []Field) bool {
		return entry.Message != "noise"
	})
	l, buf := newBufferLogger(t, nil, WithHooks(drop))

	l.Info("noise")
	l.Info("signal")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "signal", lines[0]["msg"])
}

func TestDefaultLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	l, buf := newBufferLogger(t, nil)
	SetDefault(l)
	Info("via default", "k", "v")
	Named("pkg").Warn("named default")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "pkg", lines[1]["logger"])

	SetDefault(NewNoop())
	Error("discarded")
	assert.Len(t, decodeLines(t, buf), 2)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoop()
	assert.Same(t, l, l.Named("x"))
	assert.Same(t, l, l.WithFields("a", 1))
	assert.NoError(t, l.Sync())
}
