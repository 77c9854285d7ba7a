// Package checksum 校验存储载荷的完整性
package checksum

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Type 校验算法类型
type Type string

const (
	TypeNone   Type = "none"
	TypeCRC32  Type = "crc32"
	TypeCRC32C Type = "crc32c"
	TypeXXHash Type = "xxhash"
)

// ErrUnsupported 未知的校验算法
var ErrUnsupported = errors.New("checksum: unsupported type")

// Hasher 32 位校验和计算器
type Hasher interface {
	Sum(data []byte) uint32
	Verify(data []byte, expected uint32) bool
	Type() Type
}

// 标识写入持久化数据，只能追加不能改动
var ids = map[Type]byte{
	TypeNone:   0,
	TypeCRC32:  1,
	TypeCRC32C: 2,
	TypeXXHash: 3,
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

// Types 返回全部内置算法
func Types() []Type {
	return []Type{TypeNone, TypeCRC32, TypeCRC32C, TypeXXHash}
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// New 创建校验器，空类型使用 crc32c
func New(t Type) (Hasher, error) {
	switch t {
	case TypeNone:
		return hasherFunc{typ: t, sum: func([]byte) uint32 { return 0 }}, nil
	case TypeCRC32:
		return hasherFunc{typ: t, sum: crc32.ChecksumIEEE}, nil
	case "", TypeCRC32C:
		return hasherFunc{typ: TypeCRC32C, sum: func(b []byte) uint32 { return crc32.Checksum(b, castagnoli) }}, nil
	case TypeXXHash:
		// 取 xxhash64 低 32 位
		return hasherFunc{typ: t, sum: func(b []byte) uint32 { return uint32(xxhash.Sum64(b)) }}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%q", t)
	}
}

type hasherFunc struct {
	typ Type
	sum func([]byte) uint32
}

func (h hasherFunc) Sum(data []byte) uint32 { return h.sum(data) }

func (h hasherFunc) Verify(data []byte, expected uint32) bool { return h.sum(data) == expected }

func (h hasherFunc) Type() Type { return h.typ }
