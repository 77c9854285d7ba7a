package scenario

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/social/redisplatform"
)

// Seed 写入玩家资料、好友关系与历史成绩，并以本地玩家身份设置登录凭证
func Seed(ctx context.Context, p *redisplatform.Platform, category string, cfg *Config, now time.Time) error {
	for _, pl := range cfg.Players {
		ref := social.PlayerRef{ID: pl.ID, Alias: pl.Alias, DisplayName: pl.DisplayName}
		if err := p.SavePlayer(ctx, ref); err != nil {
			return errors.Wrapf(err, "scenario: save player %s", pl.ID)
		}
		if pl.Score <= 0 {
			continue
		}
		at := now.Add(-time.Duration(pl.DaysAgo) * 24 * time.Hour)
		if err := p.SeedScore(ctx, category, pl.ID, pl.Score, at); err != nil {
			return errors.Wrapf(err, "scenario: seed score %s", pl.ID)
		}
	}

	for player, friends := range cfg.Friends {
		if err := p.AddFriends(ctx, player, friends...); err != nil {
			return errors.Wrapf(err, "scenario: add friends of %s", player)
		}
	}

	token, err := p.IssueLoginToken(cfg.LocalPlayer)
	if err != nil {
		return errors.Wrap(err, "scenario: issue login token")
	}
	p.SetLoginToken(token)
	return nil
}
