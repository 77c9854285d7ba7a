// Package compress 提供存储载荷使用的压缩算法，每种算法带一个稳定的字节标识写入载荷头
package compress

import (
	"github.com/cockroachdb/errors"
)

// Type 压缩算法类型
type Type string

const (
	TypeNone   Type = "none"
	TypeSnappy Type = "snappy"
	TypeZstd   Type = "zstd"
	TypeLZ4    Type = "lz4"
)

// ErrUnsupported 未知的压缩算法
var ErrUnsupported = errors.New("compress: unsupported type")

// ErrCorrupt 压缩数据损坏
var ErrCorrupt = errors.New("compress: corrupt data")

// Compressor 压缩器，实现需要支持并发调用
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Type() Type
}

// 标识写入持久化数据，只能追加不能改动
var ids = map[Type]byte{
	TypeNone:   0,
	TypeSnappy: 1,
	TypeZstd:   2,
	TypeLZ4:    3,
}

// ID 返回算法的字节标识
func (t Type) ID() (byte, bool) {
	id, ok := ids[t]
	return id, ok
}

// FromID 由字节标识反查算法
func FromID(id byte) (Type, bool) {
	for t, v := range ids {
		if v == id {
			return t, true
		}
	}
	return "", false
}

// New 创建压缩器，空类型视为 none
func New(t Type) (Compressor, error) {
	switch t {
	case "", TypeNone:
		return noneCompressor{}, nil
	case TypeSnappy:
		return snappyCompressor{}, nil
	case TypeZstd:
		return newZstdCompressor()
	case TypeLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%q", t)
	}
}

// Types 返回全部内置算法
func Types() []Type {
	return []Type{TypeNone, TypeSnappy, TypeZstd, TypeLZ4}
}
