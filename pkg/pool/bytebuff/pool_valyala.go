// Package bytebuff 基于 valyala/bytebufferpool 的缓冲区池，附带命中统计
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Buffer 池中的缓冲区
type Buffer = bytebufferpool.ByteBuffer

// Pool 带统计信息的缓冲区池
type Pool struct {
	pool bytebufferpool.Pool
	gets atomic.Uint64
	puts atomic.Uint64
}

var defaultPool = NewPool()

// NewPool 创建缓冲区池
func NewPool() *Pool {
	return &Pool{}
}

// Get 获取一个已清空的缓冲区
func (p *Pool) Get() *Buffer {
	p.gets.Add(1)
	return p.pool.Get()
}

// Put 归还缓冲区，归还后不得再引用 buf.B
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	p.pool.Put(buf)
}

// Stats 返回获取与归还次数
func (p *Pool) Stats() (gets, puts uint64) {
	return p.gets.Load(), p.puts.Load()
}

// Get 从默认池获取缓冲区
func Get() *Buffer {
	return defaultPool.Get()
}

// Put 归还缓冲区到默认池
func Put(buf *Buffer) {
	defaultPool.Put(buf)
}

// Stats 返回默认池的统计信息
func Stats() (gets, puts uint64) {
	return defaultPool.Stats()
}
