package redisplatform

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/database/redis"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// achievementDoc Redis 中保存的成就记录
type achievementDoc struct {
	ID         string  `codec:"id"`
	Percent    float64 `codec:"percent"`
	ReportedAt int64   `codec:"reported_at"`
}

func (d achievementDoc) record() social.AchievementRecord {
	var at time.Time
	if d.ReportedAt > 0 {
		at = time.Unix(d.ReportedAt, 0)
	}
	return social.AchievementRecord{
		ID:              d.ID,
		PercentComplete: d.Percent,
		Completed:       d.Percent >= 100,
		LastReported:    at,
	}
}

// LoadAchievements 读取本地玩家的全部成就，按 ID 排序
func (p *Platform) LoadAchievements(ctx context.Context) *conc.Future[[]social.AchievementRecord] {
	return submit(p, ctx, "load_achievements", func(ctx context.Context) ([]social.AchievementRecord, error) {
		uid, err := p.localID()
		if err != nil {
			return nil, err
		}
		docs, err := redis.HGetAllObjects[achievementDoc](ctx, p.client, p.achievementsKey(uid))
		if err != nil {
			return nil, err
		}

		out := make([]social.AchievementRecord, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.record())
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	})
}

// ReportAchievement 上报进度，保留已有进度与新进度中的较大者
func (p *Platform) ReportAchievement(ctx context.Context, id string, percent float64) *conc.Future[struct{}] {
	return submit(p, ctx, "report_achievement", func(ctx context.Context) (struct{}, error) {
		uid, err := p.localID()
		if err != nil {
			return struct{}{}, err
		}

		key := p.achievementsKey(uid)
		err = p.client.WithLock(ctx, p.achievementLockKey(uid),
			p.cfg.Lock.TTL, p.cfg.Lock.RetryInterval, p.cfg.Lock.MaxRetries,
			func() error {
				doc := achievementDoc{ID: id}
				existing, err := redis.HGetObject[achievementDoc](ctx, p.client, key, id)
				switch {
				case err == nil:
					doc = *existing
				case !errors.Is(err, redis.ErrNil):
					return err
				}
				if percent > doc.Percent {
					doc.Percent = percent
				}
				doc.ReportedAt = time.Now().Unix()
				return redis.HSetObject(ctx, p.client, key, id, doc)
			},
			func(err error) {
				p.logger.WarnContext(ctx, "release achievement lock failed", "error", err)
			},
		)
		return struct{}{}, err
	})
}

// ResetAchievements 删除本地玩家的全部成就
func (p *Platform) ResetAchievements(ctx context.Context) *conc.Future[struct{}] {
	return submit(p, ctx, "reset_achievements", func(ctx context.Context) (struct{}, error) {
		uid, err := p.localID()
		if err != nil {
			return struct{}{}, err
		}
		_, err = p.client.Del(ctx, p.achievementsKey(uid))
		return struct{}{}, err
	})
}
