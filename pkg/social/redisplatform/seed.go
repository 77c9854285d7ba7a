package redisplatform

import (
	"context"
	"time"

	"github.com/lk2023060901/xdooria-social/pkg/security"
	"github.com/lk2023060901/xdooria-social/pkg/social"
)

// SavePlayer 写入玩家资料并使缓存失效
func (p *Platform) SavePlayer(ctx context.Context, player social.PlayerRef) error {
	_, err := p.client.HSet(ctx, p.playerKey(player.ID),
		fieldID, player.ID,
		fieldAlias, player.Alias,
		fieldDisplayName, player.DisplayName,
	)
	p.profiles.Delete(player.ID)
	return err
}

// AddFriends 建立双向好友关系
func (p *Platform) AddFriends(ctx context.Context, player string, friends ...string) error {
	for _, f := range friends {
		if _, err := p.client.SAdd(ctx, p.friendsKey(player), f); err != nil {
			return err
		}
		if _, err := p.client.SAdd(ctx, p.friendsKey(f), player); err != nil {
			return err
		}
	}
	return nil
}

// SeedScore 以指定时间写入分数，只保留最好成绩
func (p *Platform) SeedScore(ctx context.Context, category, player string, value int64, at time.Time) error {
	return p.writeScore(ctx, category, player, value, at)
}

// IssueLoginToken 为玩家签发登录凭证
func (p *Platform) IssueLoginToken(player string) (string, error) {
	return p.jwt.GenerateToken(&security.Claims{
		Payload: map[string]any{"uid": player},
	})
}
