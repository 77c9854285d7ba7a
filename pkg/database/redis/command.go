package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

func wrapNil(op string, err error) error {
	if errors.Is(err, goredis.Nil) {
		return ErrNil
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

// ==================== Key 操作 ====================

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// Exists 返回存在的键数量
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("exists failed: %w", err)
	}
	return n, nil
}

// ==================== Hash 操作 ====================

// HGet 获取哈希字段，不存在时返回 ErrNil
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := c.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		return "", wrapNil("hget", err)
	}
	return val, nil
}

// HSet 设置哈希字段，values 形如 field1, value1, field2, value2
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) (int64, error) {
	n, err := c.rdb.HSet(ctx, key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("hset failed: %w", err)
	}
	return n, nil
}

// HGetAll 获取哈希所有字段，键不存在时返回空 map
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	vals, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}
	return vals, nil
}

// HDel 删除哈希字段
func (c *Client) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	n, err := c.rdb.HDel(ctx, key, fields...).Result()
	if err != nil {
		return 0, fmt.Errorf("hdel failed: %w", err)
	}
	return n, nil
}

// ==================== Set 操作 ====================

// SAdd 添加集合成员
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) (int64, error) {
	n, err := c.rdb.SAdd(ctx, key, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("sadd failed: %w", err)
	}
	return n, nil
}

// SMembers 获取集合所有成员
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	vals, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}
	return vals, nil
}

// ==================== Sorted Set 操作 ====================

func toZ(members []ZItem) []goredis.Z {
	zs := make([]goredis.Z, len(members))
	for i, m := range members {
		zs[i] = goredis.Z{Score: m.Score, Member: m.Member}
	}
	return zs
}

func fromZ(zs []goredis.Z) []ZItem {
	items := make([]ZItem, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		items[i] = ZItem{Member: member, Score: z.Score}
	}
	return items
}

// ZAdd 添加有序集合成员
func (c *Client) ZAdd(ctx context.Context, key string, members ...ZItem) (int64, error) {
	n, err := c.rdb.ZAdd(ctx, key, toZ(members)...).Result()
	if err != nil {
		return 0, fmt.Errorf("zadd failed: %w", err)
	}
	return n, nil
}

// ZAddGT 仅当新分数更高（或成员不存在）时写入，返回分数是否发生变化
func (c *Client) ZAddGT(ctx context.Context, key string, member ZItem) (bool, error) {
	n, err := c.rdb.ZAddArgs(ctx, key, goredis.ZAddArgs{
		GT:      true,
		Ch:      true,
		Members: toZ([]ZItem{member}),
	}).Result()
	if err != nil {
		return false, fmt.Errorf("zadd gt failed: %w", err)
	}
	return n > 0, nil
}

// ZRevRangeWithScores 按分数从大到小获取 [start, stop] 范围成员
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZItem, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange with scores failed: %w", err)
	}
	return fromZ(zs), nil
}

// ZCard 获取有序集合成员数量
func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return n, nil
}

// ZScore 获取成员分数，成员不存在时返回 ErrNil
func (c *Client) ZScore(ctx context.Context, key, member string) (float64, error) {
	score, err := c.rdb.ZScore(ctx, key, member).Result()
	if err != nil {
		return 0, wrapNil("zscore", err)
	}
	return score, nil
}

// ZRevRank 获取成员按分数从大到小的排名（从 0 开始），成员不存在时返回 ErrNil
func (c *Client) ZRevRank(ctx context.Context, key, member string) (int64, error) {
	rank, err := c.rdb.ZRevRank(ctx, key, member).Result()
	if err != nil {
		return 0, wrapNil("zrevrank", err)
	}
	return rank, nil
}
