package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mergeInner struct {
	Name  string
	Count int
}

type mergeTarget struct {
	Level   string
	Enabled bool
	Timeout time.Duration
	Inner   mergeInner
	Ptr     *mergeInner
	Tags    []string
	Extra   map[string]any
	Hook    func() string
}

func TestMergeConfigNil(t *testing.T) {
	_, err := MergeConfig[mergeTarget](nil, nil)
	assert.Error(t, err)

	src := &mergeTarget{Level: "debug"}
	got, err := MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)

	dst := &mergeTarget{Level: "info"}
	got, err = MergeConfig(dst, nil)
	require.NoError(t, err)
	assert.Same(t, dst, got)
}

func TestMergeConfigOverridesNonZero(t *testing.T) {
	dst := &mergeTarget{
		Level:   "info",
		Enabled: true,
		Timeout: time.Second,
		Inner:   mergeInner{Name: "base", Count: 1},
		Tags:    []string{"a"},
		Extra:   map[string]any{"region": "cn", "zone": 1},
	}
	src := &mergeTarget{
		Level:   "debug",
		Inner:   mergeInner{Count: 5},
		Ptr:     &mergeInner{Name: "ptr"},
		Tags:    []string{"b", "c"},
		Extra:   map[string]any{"zone": 2},
		Hook:    func() string { return "hook" },
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Equal(t, "debug", got.Level)
	assert.True(t, got.Enabled, "false 不覆盖 true")
	assert.Equal(t, time.Second, got.Timeout)
	assert.Equal(t, mergeInner{Name: "base", Count: 5}, got.Inner)
	require.NotNil(t, got.Ptr)
	assert.Equal(t, "ptr", got.Ptr.Name)
	assert.Equal(t, []string{"b", "c"}, got.Tags)
	assert.Equal(t, map[string]any{"region": "cn", "zone": 2}, got.Extra)
	require.NotNil(t, got.Hook)
	assert.Equal(t, "hook", got.Hook())
}
