package serializer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/checksum"
	"github.com/lk2023060901/xdooria-social/pkg/compress"
)

// ErrCorruptPayload 载荷头不完整或无法解压
var ErrCorruptPayload = errors.New("serializer: corrupt payload")

// ErrChecksumMismatch 载荷校验失败
var ErrChecksumMismatch = errors.New("serializer: checksum mismatch")

// 0xc1 在 msgpack 中保留未用，可以区分封装载荷与裸 msgpack
const envelopeMagic byte = 0xc1

// 魔数 + 压缩标识 + 校验标识 + 4 字节校验和
const envelopeHeaderSize = 7

// EnvelopeConfig 存储载荷的压缩与校验配置
type EnvelopeConfig struct {
	// Compression none/snappy/zstd/lz4
	Compression compress.Type `mapstructure:"compression" json:"compression"`
	// Checksum none/crc32/crc32c/xxhash
	Checksum checksum.Type `mapstructure:"checksum" json:"checksum"`
	// MinSize 小于该长度的载荷不压缩
	MinSize int `mapstructure:"min_size" json:"min_size" validate:"min=0"`
}

// DefaultEnvelopeConfig 默认只校验不压缩
func DefaultEnvelopeConfig() *EnvelopeConfig {
	return &EnvelopeConfig{
		Compression: compress.TypeNone,
		Checksum:    checksum.TypeCRC32C,
		MinSize:     128,
	}
}

// Envelope 在内层序列化结果外加压缩与校验头
// 解码按载荷头里的算法进行，修改配置后旧数据仍可读取；没有头的裸数据直接交给内层
type Envelope struct {
	inner       Serializer
	compressors map[byte]compress.Compressor
	hashers     map[byte]checksum.Hasher
	compressor  compress.Compressor
	hasher      checksum.Hasher
	minSize     int
}

// NewEnvelope 创建封装序列化器，inner 为空时使用 msgpack
func NewEnvelope(inner Serializer, cfg *EnvelopeConfig) (*Envelope, error) {
	if inner == nil {
		inner = NewMsgpack()
	}
	if cfg == nil {
		cfg = DefaultEnvelopeConfig()
	}

	e := &Envelope{
		inner:       inner,
		compressors: make(map[byte]compress.Compressor),
		hashers:     make(map[byte]checksum.Hasher),
		minSize:     cfg.MinSize,
	}
	for _, t := range compress.Types() {
		c, err := compress.New(t)
		if err != nil {
			return nil, err
		}
		id, _ := t.ID()
		e.compressors[id] = c
	}
	for _, t := range checksum.Types() {
		h, err := checksum.New(t)
		if err != nil {
			return nil, err
		}
		id, _ := t.ID()
		e.hashers[id] = h
	}

	var err error
	if e.compressor, err = compress.New(cfg.Compression); err != nil {
		return nil, err
	}
	if e.hasher, err = checksum.New(cfg.Checksum); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Envelope) Serialize(v any) ([]byte, error) {
	raw, err := e.inner.Serialize(v)
	if err != nil {
		return nil, err
	}

	c := e.compressor
	if len(raw) < e.minSize {
		c = e.compressors[0]
	}
	body, err := c.Compress(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "compress with %s", c.Type())
	}

	cid, _ := c.Type().ID()
	hid, _ := e.hasher.Type().ID()
	out := make([]byte, envelopeHeaderSize, envelopeHeaderSize+len(body))
	out[0] = envelopeMagic
	out[1] = cid
	out[2] = hid
	binary.BigEndian.PutUint32(out[3:], e.hasher.Sum(body))
	return append(out, body...), nil
}

func (e *Envelope) Deserialize(data []byte, v any) error {
	if len(data) == 0 || data[0] != envelopeMagic {
		return e.inner.Deserialize(data, v)
	}
	if len(data) < envelopeHeaderSize {
		return errors.Wrap(ErrCorruptPayload, "short header")
	}

	c, ok := e.compressors[data[1]]
	if !ok {
		return errors.Wrapf(ErrCorruptPayload, "unknown compression id %d", data[1])
	}
	h, ok := e.hashers[data[2]]
	if !ok {
		return errors.Wrapf(ErrCorruptPayload, "unknown checksum id %d", data[2])
	}

	body := data[envelopeHeaderSize:]
	if !h.Verify(body, binary.BigEndian.Uint32(data[3:])) {
		return errors.Wrapf(ErrChecksumMismatch, "%s", h.Type())
	}
	raw, err := c.Decompress(body)
	if err != nil {
		return errors.Mark(err, ErrCorruptPayload)
	}
	return e.inner.Deserialize(raw, v)
}

func (e *Envelope) ContentType() string {
	return e.inner.ContentType() + "+" + string(e.compressor.Type())
}
