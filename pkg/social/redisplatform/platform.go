// Package redisplatform 基于 Redis 的社交平台实现，用于本地联调和演示。
package redisplatform

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/xdooria-social/pkg/cache/lru"
	"github.com/lk2023060901/xdooria-social/pkg/config"
	"github.com/lk2023060901/xdooria-social/pkg/database/redis"
	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/security"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// Platform 以 Redis 为存储的 social.PlatformService
type Platform struct {
	cfg     *Config
	client  *redis.Client
	jwt     *security.JWTManager
	limiter *rate.Limiter
	pool    *conc.Pool[struct{}]
	logger  logger.Logger

	// profiles 玩家资料缓存，不含 IsFriend
	profiles *lru.Cache[string, social.PlayerRef]

	mu    sync.RWMutex
	local social.PlayerRef
}

var _ social.PlatformService = (*Platform)(nil)

// Option 平台选项
type Option func(*Platform)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(p *Platform) {
		p.logger = l
	}
}

// New 创建 Redis 平台
func New(cfg *Config, client *redis.Client, opts ...Option) (*Platform, error) {
	if client == nil {
		return nil, errors.New("redisplatform: redis client is required")
	}

	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "redisplatform: merge config")
	}
	if err := config.Validate(newCfg); err != nil {
		return nil, errors.Wrap(err, "redisplatform: invalid config")
	}

	jwtManager, err := security.NewJWTManager(&newCfg.JWT)
	if err != nil {
		return nil, errors.Wrap(err, "redisplatform: create jwt manager")
	}

	profiles, err := lru.New[string, social.PlayerRef](&newCfg.ProfileCache)
	if err != nil {
		return nil, errors.Wrap(err, "redisplatform: create profile cache")
	}

	p := &Platform{
		cfg:      newCfg,
		client:   client,
		jwt:      jwtManager,
		limiter:  rate.NewLimiter(rate.Limit(newCfg.RequestsPerSecond), newCfg.Burst),
		pool:     conc.NewPool[struct{}](newCfg.Workers),
		logger:   logger.NewNoop(),
		profiles: profiles,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("platform.redis")
	return p, nil
}

// Close 释放协程池与资料缓存，不关闭 Redis 客户端
func (p *Platform) Close() {
	p.pool.Release()
	_ = p.profiles.Close()
}

// SetLoginToken 更换登录凭证，下一次 Authenticate 生效
func (p *Platform) SetLoginToken(token string) {
	p.mu.Lock()
	p.cfg.LoginToken = token
	p.mu.Unlock()
}

// SignOut 清除本地玩家
func (p *Platform) SignOut() {
	p.mu.Lock()
	p.local = social.PlayerRef{}
	p.mu.Unlock()
}

func (p *Platform) localID() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.local.ID == "" {
		return "", ErrNotSignedIn
	}
	return p.local.ID, nil
}

// submit 在协程池中限流执行 fn，结果通过 Future 返回
func submit[T any](p *Platform, ctx context.Context, op string, fn func(ctx context.Context) (T, error)) *conc.Future[T] {
	promise := conc.NewPromise[T]()

	f := p.pool.Submit(func() (struct{}, error) {
		defer func() {
			if r := recover(); r != nil {
				promise.Reject(errors.Newf("redisplatform: %s panic: %v", op, r))
			}
		}()

		if err := p.limiter.Wait(ctx); err != nil {
			promise.Reject(errors.Wrapf(err, "redisplatform: %s throttled", op))
			return struct{}{}, nil
		}

		value, err := fn(ctx)
		if err != nil {
			p.logger.WarnContext(ctx, "platform operation failed", "op", op, "error", err)
			err = errors.Wrapf(err, "redisplatform: %s", op)
		}
		promise.Complete(value, err)
		return struct{}{}, nil
	})
	if f.Done() {
		if err := f.Err(); err != nil {
			promise.Reject(err)
		}
	}
	return promise.Future()
}

// loginPayload 登录凭证载荷
type loginPayload struct {
	UID string `mapstructure:"uid"`
}

// Authenticate 校验登录凭证并加载本地玩家资料
func (p *Platform) Authenticate(ctx context.Context) *conc.Future[social.PlayerRef] {
	p.mu.RLock()
	token := p.cfg.LoginToken
	p.mu.RUnlock()

	return submit(p, ctx, "authenticate", func(ctx context.Context) (social.PlayerRef, error) {
		claims, err := p.jwt.ValidateToken(token)
		if err != nil {
			return social.PlayerRef{}, errors.Mark(err, ErrInvalidLogin)
		}

		var payload loginPayload
		if err := claims.UnmarshalKey("", &payload); err != nil {
			return social.PlayerRef{}, errors.Mark(err, ErrInvalidLogin)
		}
		if payload.UID == "" {
			return social.PlayerRef{}, ErrInvalidLogin
		}

		players, err := p.loadProfiles(ctx, []string{payload.UID})
		if err != nil {
			return social.PlayerRef{}, err
		}
		if len(players) == 0 {
			return social.PlayerRef{}, errors.Wrapf(ErrUnknownPlayer, "uid %s", payload.UID)
		}

		p.mu.Lock()
		p.local = players[0]
		p.mu.Unlock()
		p.logger.InfoContext(ctx, "player signed in", "player_id", payload.UID)
		return players[0], nil
	})
}

func (p *Platform) formatScore(value int64) string {
	return fmt.Sprintf(p.cfg.ScoreFormat, value)
}
