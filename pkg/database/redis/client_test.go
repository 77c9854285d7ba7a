package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	c, err := NewClient(&Config{
		Standalone: &NodeConfig{Host: mr.Host(), Port: port},
		KeyPrefix:  "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want error
	}{
		{"nil", nil, ErrNilConfig},
		{"empty", &Config{}, ErrInvalidConfig},
		{"both", &Config{Standalone: &NodeConfig{}, Cluster: &ClusterConfig{Addrs: []string{"a:1"}}}, ErrInvalidConfig},
		{"cluster without addrs", &Config{Cluster: &ClusterConfig{}}, ErrInvalidConfig},
		{"standalone", &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}, nil},
		{"cluster", &Config{Cluster: &ClusterConfig{Addrs: []string{"a:1"}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestClientKeyAndPing(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "test:lb:board", c.Key("lb", "board"))
	require.NoError(t, c.Ping(context.Background()))
}

func TestClientPingFailure(t *testing.T) {
	c, mr := newTestClient(t)
	mr.SetError("LOADING")
	assert.Error(t, c.Ping(context.Background()))
}

func TestHashCommands(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, err := c.HSet(ctx, "player:p1", "alias", "Ann", "display_name", "Ann A.")
	require.NoError(t, err)
	assert.Equal(t, "Ann", mr.HGet("player:p1", "alias"))

	v, err := c.HGet(ctx, "player:p1", "alias")
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)

	_, err = c.HGet(ctx, "player:p1", "missing")
	assert.ErrorIs(t, err, ErrNil)

	all, err := c.HGetAll(ctx, "player:p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alias": "Ann", "display_name": "Ann A."}, all)

	n, err := c.HDel(ctx, "player:p1", "display_name")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Exists(ctx, "player:p1", "player:nobody")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Del(ctx, "player:p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSetCommands(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.SAdd(ctx, "friends:p1", "p2", "p3")
	require.NoError(t, err)

	members, err := c.SMembers(ctx, "friends:p1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p2", "p3"}, members)

	members, err = c.SMembers(ctx, "friends:nobody")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestSortedSetCommands(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	key := "lb:board"

	_, err := c.ZAdd(ctx, key, ZItem{Member: "a", Score: 500}, ZItem{Member: "b", Score: 300})
	require.NoError(t, err)

	changed, err := c.ZAddGT(ctx, key, ZItem{Member: "b", Score: 100})
	require.NoError(t, err)
	assert.False(t, changed, "更低的分数不应覆盖")

	changed, err = c.ZAddGT(ctx, key, ZItem{Member: "c", Score: 400})
	require.NoError(t, err)
	assert.True(t, changed)

	items, err := c.ZRevRangeWithScores(ctx, key, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []ZItem{{"a", 500}, {"c", 400}, {"b", 300}}, items)

	score, err := c.ZScore(ctx, key, "b")
	require.NoError(t, err)
	assert.Equal(t, 300.0, score)

	rank, err := c.ZRevRank(ctx, key, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rank)

	_, err = c.ZRevRank(ctx, key, "zzz")
	assert.ErrorIs(t, err, ErrNil)
	_, err = c.ZScore(ctx, key, "zzz")
	assert.ErrorIs(t, err, ErrNil)

	n, err := c.ZCard(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
