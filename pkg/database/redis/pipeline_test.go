package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHGetAllMulti(t *testing.T) {
	c, mr := newTestClient(t)
	mr.HSet("player:a", "alias", "Ann")
	mr.HSet("player:b", "alias", "Bo")

	out, err := c.HGetAllMulti(context.Background(), "player:b", "player:missing", "player:a")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Bo", out[0]["alias"])
	assert.Empty(t, out[1])
	assert.Equal(t, "Ann", out[2]["alias"])
}

func TestPipelineMixedResults(t *testing.T) {
	c, mr := newTestClient(t)
	_, _ = mr.ZAdd("lb", 42, "a")
	mr.HSet("dates", "a", "1700000000")

	ctx := context.Background()
	results, err := c.Pipeline().
		ZScore(ctx, "lb", "a").
		ZScore(ctx, "lb", "missing").
		HGet(ctx, "dates", "a").
		Exec(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 42.0, results[0].Val)
	assert.ErrorIs(t, results[1].Err, ErrNil)
	assert.Equal(t, "1700000000", results[2].Val)
}

func TestPipelineEmpty(t *testing.T) {
	c, _ := newTestClient(t)
	results, err := c.Pipeline().Exec(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, results)
}
