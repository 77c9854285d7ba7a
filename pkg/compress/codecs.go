package compress

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type noneCompressor struct{}

func (noneCompressor) Compress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Decompress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Type() Type { return TypeNone }

type snappyCompressor struct{}

func (snappyCompressor) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCompressor) Decompress(src []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "snappy"), ErrCorrupt)
	}
	return out, nil
}

func (snappyCompressor) Type() Type { return TypeSnappy }

// zstdCompressor EncodeAll/DecodeAll 可并发使用，编解码器整个生命周期复用
type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCompressor() (*zstdCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "create zstd encoder")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, errors.Wrap(err, "create zstd decoder")
	}
	return &zstdCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *zstdCompressor) Compress(src []byte) ([]byte, error) {
	return c.encoder.EncodeAll(src, nil), nil
}

func (c *zstdCompressor) Decompress(src []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(src, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "zstd"), ErrCorrupt)
	}
	return out, nil
}

func (c *zstdCompressor) Type() Type { return TypeZstd }

// lz4Compressor 块格式：uvarint(原始长度) + 标志位 + 数据
// 标志位 0 表示原文（不可压缩），1 表示 lz4 块
type lz4Compressor struct{}

const (
	lz4Raw   byte = 0
	lz4Block byte = 1
)

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	head := make([]byte, binary.MaxVarintLen64+1)
	n := binary.PutUvarint(head, uint64(len(src)))

	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	size, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4")
	}
	if size == 0 || size >= len(src) {
		head[n] = lz4Raw
		return append(head[:n+1], src...), nil
	}
	head[n] = lz4Block
	return append(head[:n+1], dst[:size]...), nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	rawLen, n := binary.Uvarint(src)
	if n <= 0 || len(src) < n+1 {
		return nil, errors.Wrap(ErrCorrupt, "lz4 header")
	}
	body := src[n+1:]
	switch src[n] {
	case lz4Raw:
		if uint64(len(body)) != rawLen {
			return nil, errors.Wrap(ErrCorrupt, "lz4 raw length")
		}
		return append([]byte(nil), body...), nil
	case lz4Block:
		dst := make([]byte, rawLen)
		size, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "lz4"), ErrCorrupt)
		}
		if uint64(size) != rawLen {
			return nil, errors.Wrap(ErrCorrupt, "lz4 length mismatch")
		}
		return dst, nil
	default:
		return nil, errors.Wrapf(ErrCorrupt, "lz4 flag %d", src[n])
	}
}

func (lz4Compressor) Type() Type { return TypeLZ4 }
