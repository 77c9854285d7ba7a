package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Pipeline 批量命令，一次往返提交
type Pipeline struct {
	pipe goredis.Pipeliner
	cmds []func() (interface{}, error)
}

// Pipeline 创建 Pipeline
func (c *Client) Pipeline() *Pipeline {
	return &Pipeline{pipe: c.rdb.Pipeline()}
}

// HGetAll 添加 HGetAll 命令，结果为 map[string]string
func (p *Pipeline) HGetAll(ctx context.Context, key string) *Pipeline {
	cmd := p.pipe.HGetAll(ctx, key)
	p.cmds = append(p.cmds, func() (interface{}, error) { return cmd.Result() })
	return p
}

// ZScore 添加 ZScore 命令，成员不存在时结果为 ErrNil
func (p *Pipeline) ZScore(ctx context.Context, key, member string) *Pipeline {
	cmd := p.pipe.ZScore(ctx, key, member)
	p.cmds = append(p.cmds, func() (interface{}, error) { return cmd.Result() })
	return p
}

// HGet 添加 HGet 命令，字段不存在时结果为 ErrNil
func (p *Pipeline) HGet(ctx context.Context, key, field string) *Pipeline {
	cmd := p.pipe.HGet(ctx, key, field)
	p.cmds = append(p.cmds, func() (interface{}, error) { return cmd.Result() })
	return p
}

// PipelineResult 单条命令结果
type PipelineResult struct {
	Val interface{}
	Err error
}

// Exec 执行 Pipeline，按添加顺序返回每条命令的结果。
// 只有网络等整体失败才返回 error，单条命令的 redis.Nil 会被转换为 ErrNil 放入结果。
func (p *Pipeline) Exec(ctx context.Context) ([]PipelineResult, error) {
	if len(p.cmds) == 0 {
		return nil, nil
	}
	if _, err := p.pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("pipeline exec failed: %w", err)
	}

	results := make([]PipelineResult, len(p.cmds))
	for i, get := range p.cmds {
		val, err := get()
		if errors.Is(err, goredis.Nil) {
			err = ErrNil
		}
		results[i] = PipelineResult{Val: val, Err: err}
	}
	return results, nil
}

// HGetAllMulti 一次往返获取多个哈希，返回顺序与 keys 一致，不存在的键对应空 map
func (c *Client) HGetAllMulti(ctx context.Context, keys ...string) ([]map[string]string, error) {
	p := c.Pipeline()
	for _, k := range keys {
		p.HGetAll(ctx, k)
	}
	results, err := p.Exec(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]string, len(keys))
	for i, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("hgetall %s failed: %w", keys[i], r.Err)
		}
		out[i], _ = r.Val.(map[string]string)
	}
	return out, nil
}
