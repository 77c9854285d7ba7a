package redis

import (
	"context"
	"fmt"
)

// HGetObject 读取哈希字段并用客户端序列化器解码，字段不存在时返回 ErrNil
func HGetObject[T any](ctx context.Context, c *Client, key, field string) (*T, error) {
	val, err := c.HGet(ctx, key, field)
	if err != nil {
		return nil, err
	}

	var obj T
	if err := c.codec.Deserialize([]byte(val), &obj); err != nil {
		return nil, fmt.Errorf("decode object at field %s failed: %w", field, err)
	}
	return &obj, nil
}

// HSetObject 编码后写入哈希字段
func HSetObject(ctx context.Context, c *Client, key, field string, value any) error {
	data, err := c.codec.Serialize(value)
	if err != nil {
		return fmt.Errorf("encode object failed: %w", err)
	}
	if _, err := c.HSet(ctx, key, field, data); err != nil {
		return err
	}
	return nil
}

// HGetAllObjects 读取哈希所有字段并解码，任一字段解码失败即返回错误
func HGetAllObjects[T any](ctx context.Context, c *Client, key string) (map[string]*T, error) {
	vals, err := c.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*T, len(vals))
	for field, val := range vals {
		var obj T
		if err := c.codec.Deserialize([]byte(val), &obj); err != nil {
			return nil, fmt.Errorf("decode object at field %s failed: %w", field, err)
		}
		out[field] = &obj
	}
	return out, nil
}
