package redisplatform

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-social/pkg/database/redis"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// SubmitScore 提交分数，只保留每个玩家的最好成绩
func (p *Platform) SubmitScore(ctx context.Context, category string, value int64) *conc.Future[struct{}] {
	return submit(p, ctx, "submit_score", func(ctx context.Context) (struct{}, error) {
		uid, err := p.localID()
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, p.writeScore(ctx, category, uid, value, time.Now())
	})
}

func (p *Platform) writeScore(ctx context.Context, category, uid string, value int64, at time.Time) error {
	changed, err := p.client.ZAddGT(ctx, p.leaderboardKey(category), redis.ZItem{Member: uid, Score: float64(value)})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	_, err = p.client.HSet(ctx, p.datesKey(category), uid, strconv.FormatInt(at.Unix(), 10))
	return err
}

// LoadScores 读取一页排行榜
func (p *Platform) LoadScores(ctx context.Context, q social.LeaderboardQuery) *conc.Future[[]social.ScoreEntry] {
	return submit(p, ctx, "load_scores", func(ctx context.Context) ([]social.ScoreEntry, error) {
		uid, err := p.localID()
		if err != nil {
			return nil, err
		}
		if q.Start < 1 || q.Length < 1 {
			return nil, errors.Newf("invalid range start=%d length=%d", q.Start, q.Length)
		}

		// 全局总榜直接按区间读取，其余情况读取候选后在内存中过滤排名
		if q.PlayerScope == social.ScopeGlobal && q.TimeScope == social.TimeAllTime {
			return p.loadGlobalPage(ctx, q)
		}

		items, err := p.candidates(ctx, q, uid)
		if err != nil {
			return nil, err
		}
		dates, err := p.client.HGetAll(ctx, p.datesKey(q.Category))
		if err != nil {
			return nil, err
		}

		since := q.TimeScope.Since(time.Now())
		entries := make([]social.ScoreEntry, 0, len(items))
		for _, it := range items {
			date := parseUnix(dates[it.Member])
			if !since.IsZero() && date.Before(since) {
				continue
			}
			entries = append(entries, p.entry(q.Category, it, 0, date))
		}
		for i := range entries {
			entries[i].Rank = i + 1
		}
		return page(entries, q.Start, q.Length), nil
	})
}

func (p *Platform) loadGlobalPage(ctx context.Context, q social.LeaderboardQuery) ([]social.ScoreEntry, error) {
	start := int64(q.Start - 1)
	items, err := p.client.ZRevRangeWithScores(ctx, p.leaderboardKey(q.Category), start, start+int64(q.Length)-1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []social.ScoreEntry{}, nil
	}

	pipe := p.client.Pipeline()
	for _, it := range items {
		pipe.HGet(ctx, p.datesKey(q.Category), it.Member)
	}
	results, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]social.ScoreEntry, len(items))
	for i, it := range items {
		var date time.Time
		if s, ok := results[i].Val.(string); ok && results[i].Err == nil {
			date = parseUnix(s)
		}
		entries[i] = p.entry(q.Category, it, q.Start+i, date)
	}
	return entries, nil
}

// candidates 按玩家范围返回候选分数，分数从高到低
func (p *Platform) candidates(ctx context.Context, q social.LeaderboardQuery, uid string) ([]redis.ZItem, error) {
	key := p.leaderboardKey(q.Category)
	if q.PlayerScope != social.ScopeFriendsOnly {
		return p.client.ZRevRangeWithScores(ctx, key, 0, -1)
	}

	friends, err := p.client.SMembers(ctx, p.friendsKey(uid))
	if err != nil {
		return nil, err
	}
	members := append([]string{uid}, friends...)

	pipe := p.client.Pipeline()
	for _, m := range members {
		pipe.ZScore(ctx, key, m)
	}
	results, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]redis.ZItem, 0, len(members))
	for i, r := range results {
		if errors.Is(r.Err, redis.ErrNil) {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		score, _ := r.Val.(float64)
		items = append(items, redis.ZItem{Member: members[i], Score: score})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Member > items[j].Member
	})
	return items, nil
}

// LoadLocalPlayerScore 读取本地玩家的最好成绩，未上榜时 Rank 为 0
func (p *Platform) LoadLocalPlayerScore(ctx context.Context, category string) *conc.Future[social.ScoreEntry] {
	return submit(p, ctx, "load_local_score", func(ctx context.Context) (social.ScoreEntry, error) {
		uid, err := p.localID()
		if err != nil {
			return social.ScoreEntry{}, err
		}

		key := p.leaderboardKey(category)
		score, err := p.client.ZScore(ctx, key, uid)
		if errors.Is(err, redis.ErrNil) {
			return social.ScoreEntry{PlayerID: uid, Category: category}, nil
		}
		if err != nil {
			return social.ScoreEntry{}, err
		}
		rank, err := p.client.ZRevRank(ctx, key, uid)
		if err != nil {
			return social.ScoreEntry{}, err
		}

		var date time.Time
		if s, err := p.client.HGet(ctx, p.datesKey(category), uid); err == nil {
			date = parseUnix(s)
		}
		return p.entry(category, redis.ZItem{Member: uid, Score: score}, int(rank)+1, date), nil
	})
}

func (p *Platform) entry(category string, it redis.ZItem, rank int, date time.Time) social.ScoreEntry {
	value := int64(it.Score)
	return social.ScoreEntry{
		PlayerID:       it.Member,
		Category:       category,
		Value:          value,
		Rank:           rank,
		FormattedValue: p.formatScore(value),
		Date:           date,
	}
}

func page(entries []social.ScoreEntry, start, length int) []social.ScoreEntry {
	from := start - 1
	if from >= len(entries) {
		return []social.ScoreEntry{}
	}
	to := from + length
	if to > len(entries) {
		to = len(entries)
	}
	return entries[from:to]
}

func parseUnix(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
