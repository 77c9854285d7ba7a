package redisplatform

import "github.com/cockroachdb/errors"

var (
	// ErrNotSignedIn 尚未认证
	ErrNotSignedIn = errors.New("redisplatform: local player not signed in")
	// ErrUnknownPlayer 凭证中的玩家不存在
	ErrUnknownPlayer = errors.New("redisplatform: unknown player")
	// ErrInvalidLogin 登录凭证无效
	ErrInvalidLogin = errors.New("redisplatform: invalid login token")
)
