package social

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrorKind 错误分类
type ErrorKind int

const (
	// KindAuthentication 认证失败
	KindAuthentication ErrorKind = iota + 1
	// KindPlatform 平台调用失败（网络、超时、平台返回错误）
	KindPlatform
	// KindNotAuthenticated 未认证时调用，只用于内部判断，不会写入 LastError
	KindNotAuthenticated
	// KindPartialResult 多步请求中后续步骤失败
	KindPartialResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindPlatform:
		return "platform"
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindPartialResult:
		return "partial_result"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthenticationFailed 认证失败
	ErrAuthenticationFailed = errors.New("social: authentication failed")
	// ErrPlatform 平台调用失败
	ErrPlatform = errors.New("social: platform request failed")
	// ErrPartialResult 部分结果
	ErrPartialResult = errors.New("social: partial result")
	// ErrNotAuthenticated 本地玩家未认证
	ErrNotAuthenticated = errors.New("social: local player not authenticated")
	// ErrRequestDropped 同类请求排队已满，请求被丢弃
	ErrRequestDropped = errors.New("social: request dropped")
	// ErrClosed Helper 已关闭
	ErrClosed = errors.New("social: helper closed")
)

var kindSentinels = map[ErrorKind]error{
	KindAuthentication:   ErrAuthenticationFailed,
	KindPlatform:         ErrPlatform,
	KindNotAuthenticated: ErrNotAuthenticated,
	KindPartialResult:    ErrPartialResult,
}

// ErrorRecord 最近一次失败
type ErrorRecord struct {
	Kind ErrorKind
	Op   RequestKind
	Err  error
	At   time.Time
}

func (r ErrorRecord) Error() string {
	if r.Err == nil {
		return r.Kind.String() + " error in " + r.Op.String()
	}
	return r.Op.String() + ": " + r.Err.Error()
}

func (r ErrorRecord) Unwrap() error {
	return r.Err
}

// classify 为平台错误打上分类标记，原始错误链保留
func classify(kind ErrorKind, op RequestKind, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	wrapped := errors.Wrapf(err, "%s", op)
	if sentinel, ok := kindSentinels[kind]; ok {
		wrapped = errors.Mark(wrapped, sentinel)
	}
	return wrapped
}

// IsPartialResult 是否为部分结果错误
func IsPartialResult(err error) bool {
	return errors.Is(err, ErrPartialResult)
}

// IsAuthenticationFailed 是否为认证失败
func IsAuthenticationFailed(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}

// IsPlatform 是否为平台调用失败
func IsPlatform(err error) bool {
	return errors.Is(err, ErrPlatform)
}
