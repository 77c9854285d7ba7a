package social

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/otel"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// coordinator 把游戏层操作转换为平台调用，负责串行化、结果合并、缓存更新和通知
type coordinator struct {
	cfg        *Config
	logger     logger.Logger
	platform   PlatformService
	presenter  PresentationBridge
	session    *sessionManager
	cache      *AchievementCache
	lanes      *laneSet
	reports    *achievementReports
	dispatcher *dispatcher
	metrics    *Metrics
	tracer     otel.Tracer
	now        func() time.Time

	// 关闭时取消所有在途等待
	ctx    context.Context
	cancel context.CancelFunc
}

// enqueue 门控后把任务放入 kind 对应的 lane。
// 出队执行时再检查一次认证状态，期间登出的请求直接跳过。
func (c *coordinator) enqueue(kind RequestKind, task func(ctx context.Context)) bool {
	if !c.session.available() {
		c.skip(kind)
		return false
	}

	err := c.lanes.submit(kind, func() {
		if !c.session.available() {
			c.skip(kind)
			return
		}
		ctx := c.requestContext(kind)
		task(ctx)
	})
	return err == nil
}

func (c *coordinator) skip(kind RequestKind) {
	c.metrics.RequestSkipped.WithLabelValues(kind.String()).Inc()
	c.logger.Debug("local player not authenticated, request ignored", "request_kind", kind.String())
}

// requestContext 为一次请求生成带 request_id 的 context
func (c *coordinator) requestContext(kind RequestKind) context.Context {
	return logger.ContextWithFields(c.ctx,
		"request_id", uuid.NewString(),
		"request_kind", kind.String(),
	)
}

// call 发起一次平台调用并等待 Future 完成，记录耗时与 span
func call[T any](c *coordinator, ctx context.Context, kind RequestKind, fn func(context.Context) *conc.Future[T], attrs ...otel.Attribute) (T, error) {
	ctx, span := c.tracer.Start(ctx, "social."+kind.String(),
		otel.WithSpanKind(otel.SpanKindClient),
		otel.WithAttributes(attrs...),
	)
	defer span.End()

	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	start := c.now()
	value, err := await(ctx, fn(ctx))
	elapsed := c.now().Sub(start)

	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	default:
		result = "failed"
	}
	c.metrics.recordRequest(kind, result, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otel.CodeError, err.Error())
		c.logger.WarnContext(ctx, "platform request failed", "error", err, "elapsed", elapsed)
		return value, err
	}
	span.SetStatus(otel.CodeOk, "")
	c.logger.DebugContext(ctx, "platform request completed", "elapsed", elapsed)
	return value, nil
}

// await 等待 Future 或 ctx 结束
func await[T any](ctx context.Context, f *conc.Future[T]) (T, error) {
	if f == nil {
		var zero T
		return zero, errors.New("platform returned nil future")
	}
	select {
	case <-f.Inner():
		return f.Await()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *coordinator) notify(n notification) {
	c.dispatcher.enqueue(n)
}

func (c *coordinator) fail(ctx context.Context, kind ErrorKind, op RequestKind, err error) {
	c.session.recordError(kind, op, err)
	c.logger.InfoContext(ctx, "last error updated", "error_kind", kind.String())
}

func (c *coordinator) category(category string) string {
	if category == "" {
		return c.cfg.DefaultLeaderboard
	}
	return category
}

// normalizeQuery 补全默认排行榜与分页
func (c *coordinator) normalizeQuery(q LeaderboardQuery) LeaderboardQuery {
	q.Category = c.category(q.Category)
	if q.Start < 1 {
		q.Start = 1
	}
	if q.Length <= 0 {
		q.Length = c.cfg.ScorePageSize
	}
	return q
}

func (c *coordinator) authenticate() {
	gen, ok := c.session.beginAuthenticate()
	if !ok {
		c.logger.Debug("authentication already in progress or done")
		return
	}

	err := c.lanes.submit(KindAuthenticate, func() {
		ctx := c.requestContext(KindAuthenticate)
		player, err := call(c, ctx, KindAuthenticate, c.platform.Authenticate)
		if !c.session.completeAuthenticate(gen, player, err) {
			return
		}
		c.notify(notification{kind: NotifyAuthenticationChanged})
	})
	if err != nil && c.session.completeAuthenticate(gen, PlayerRef{}, err) {
		c.notify(notification{kind: NotifyAuthenticationChanged})
	}
}

func (c *coordinator) authenticationLost() {
	if !c.session.signOut() {
		return
	}
	c.cache.Clear()
	c.notify(notification{kind: NotifyAuthenticationChanged})
}

func (c *coordinator) getFriends() {
	c.enqueue(KindFetchFriends, func(ctx context.Context) {
		ids, err := call(c, ctx, KindFetchFriends, c.platform.FriendIDs)
		if err != nil {
			c.fail(ctx, KindPlatform, KindFetchFriends, err)
			c.notify(notification{kind: NotifyFriendList})
			return
		}
		if len(ids) == 0 {
			c.notify(notification{kind: NotifyFriendList, players: []PlayerRef{}})
			return
		}

		players, err := call(c, ctx, KindFetchFriends, func(ctx context.Context) *conc.Future[[]PlayerRef] {
			return c.platform.LoadPlayers(ctx, ids)
		}, otel.Int("friend.count", len(ids)))
		if err != nil {
			c.fail(ctx, KindPartialResult, KindFetchFriends, err)
			c.notify(notification{kind: NotifyFriendList})
			return
		}

		out := make([]PlayerRef, len(players))
		for i, p := range players {
			p.IsFriend = true
			out[i] = p
		}
		c.notify(notification{kind: NotifyFriendList, players: out})
	})
}

func (c *coordinator) getPlayerInfo(ids []string) {
	ids = append([]string(nil), ids...)
	c.enqueue(KindFetchPlayerInfo, func(ctx context.Context) {
		if len(ids) == 0 {
			c.notify(notification{kind: NotifyPlayerInfo, players: []PlayerRef{}})
			return
		}
		players, err := call(c, ctx, KindFetchPlayerInfo, func(ctx context.Context) *conc.Future[[]PlayerRef] {
			return c.platform.LoadPlayers(ctx, ids)
		}, otel.Int("player.count", len(ids)))
		if err != nil {
			c.fail(ctx, KindPlatform, KindFetchPlayerInfo, err)
			return
		}
		c.notify(notification{kind: NotifyPlayerInfo, players: players})
	})
}

func (c *coordinator) submitScore(value int64, category string) {
	category = c.category(category)
	c.enqueue(KindSubmitScore, func(ctx context.Context) {
		_, err := call(c, ctx, KindSubmitScore, func(ctx context.Context) *conc.Future[struct{}] {
			return c.platform.SubmitScore(ctx, category, value)
		}, otel.String("leaderboard.category", category), otel.Int64("score.value", value))
		if err != nil {
			c.fail(ctx, KindPlatform, KindSubmitScore, err)
		}
		c.notify(notification{kind: NotifyScoresSubmitted, success: err == nil})
	})
}

func (c *coordinator) getLocalPlayerHighScore() {
	category := c.cfg.DefaultLeaderboard
	c.enqueue(KindFetchLocalScore, func(ctx context.Context) {
		score, err := call(c, ctx, KindFetchLocalScore, func(ctx context.Context) *conc.Future[ScoreEntry] {
			return c.platform.LoadLocalPlayerScore(ctx, category)
		}, otel.String("leaderboard.category", category))
		if err != nil {
			c.fail(ctx, KindPlatform, KindFetchLocalScore, err)
			return
		}
		c.notify(notification{kind: NotifyLocalPlayerScore, score: score})
	})
}

func (c *coordinator) getScores(q LeaderboardQuery) {
	q = c.normalizeQuery(q)
	c.enqueue(KindFetchScores, func(ctx context.Context) {
		scores, err := c.loadScores(ctx, KindFetchScores, q)
		if err != nil {
			c.fail(ctx, KindPlatform, KindFetchScores, err)
			return
		}
		c.notify(notification{kind: NotifyScores, scores: scores})
	})
}

func (c *coordinator) loadScores(ctx context.Context, kind RequestKind, q LeaderboardQuery) ([]ScoreEntry, error) {
	scores, err := call(c, ctx, kind, func(ctx context.Context) *conc.Future[[]ScoreEntry] {
		return c.platform.LoadScores(ctx, q)
	},
		otel.String("leaderboard.category", q.Category),
		otel.Int("leaderboard.start", q.Start),
		otel.Int("leaderboard.length", q.Length),
	)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Rank < scores[j].Rank })
	return scores, nil
}

func (c *coordinator) getScoresAndAlias(q LeaderboardQuery) {
	q = c.normalizeQuery(q)
	c.enqueue(KindFetchAliasScores, func(ctx context.Context) {
		scores, err := c.loadScores(ctx, KindFetchAliasScores, q)
		if err != nil {
			c.fail(ctx, KindPlatform, KindFetchAliasScores, err)
			return
		}
		if len(scores) == 0 {
			c.notify(notification{kind: NotifyAliasScores, aliases: AliasScores{}})
			return
		}

		ids := uniquePlayerIDs(scores)
		players, err := call(c, ctx, KindFetchAliasScores, func(ctx context.Context) *conc.Future[[]PlayerRef] {
			return c.platform.LoadPlayers(ctx, ids)
		}, otel.Int("player.count", len(ids)))
		if err != nil {
			c.fail(ctx, KindPartialResult, KindFetchAliasScores, err)
			return
		}

		c.notify(notification{kind: NotifyAliasScores, aliases: joinAliases(scores, players)})
	})
}

func uniquePlayerIDs(scores []ScoreEntry) []string {
	seen := make(map[string]struct{}, len(scores))
	ids := make([]string, 0, len(scores))
	for _, s := range scores {
		if _, ok := seen[s.PlayerID]; ok {
			continue
		}
		seen[s.PlayerID] = struct{}{}
		ids = append(ids, s.PlayerID)
	}
	return ids
}

// joinAliases 按分数顺序合并别名，未解析到的玩家使用 ID
func joinAliases(scores []ScoreEntry, players []PlayerRef) AliasScores {
	aliases := make(map[string]string, len(players))
	for _, p := range players {
		switch {
		case p.Alias != "":
			aliases[p.ID] = p.Alias
		case p.DisplayName != "":
			aliases[p.ID] = p.DisplayName
		}
	}

	out := make(AliasScores, 0, len(scores))
	for _, s := range scores {
		alias, ok := aliases[s.PlayerID]
		if !ok {
			alias = s.PlayerID
		}
		out = append(out, AliasScore{Alias: alias, Score: s})
	}
	return out
}

func (c *coordinator) loadAchievements() {
	c.enqueue(KindLoadAchievements, func(ctx context.Context) {
		records, err := call(c, ctx, KindLoadAchievements, c.platform.LoadAchievements)
		if err != nil {
			c.fail(ctx, KindPlatform, KindLoadAchievements, err)
			return
		}
		c.cache.ReplaceAll(records)
		c.logger.InfoContext(ctx, "achievements loaded", "count", len(records))
	})
}

func (c *coordinator) reportAchievement(id string, percent float64) {
	if !c.session.available() {
		c.skip(KindReportAchievement)
		return
	}

	percent = clampPercent(percent)
	c.cache.Set(AchievementRecord{ID: id, PercentComplete: percent, LastReported: c.now()})
	c.logger.Debug("achievement updated locally", "id", id, "percent", percent)

	accepted := c.reports.push(id, percent, func(percent float64) {
		if !c.session.available() {
			c.skip(KindReportAchievement)
			return
		}
		ctx := c.requestContext(KindReportAchievement)
		_, err := call(c, ctx, KindReportAchievement, func(ctx context.Context) *conc.Future[struct{}] {
			return c.platform.ReportAchievement(ctx, id, percent)
		}, otel.String("achievement.id", id), otel.Float64("achievement.percent", percent))
		if err != nil {
			c.fail(ctx, KindPlatform, KindReportAchievement, err)
		}
	})
	if !accepted {
		c.metrics.RequestDropped.WithLabelValues(KindReportAchievement.String()).Inc()
		c.fail(c.ctx, KindPlatform, KindReportAchievement,
			errors.Wrapf(ErrRequestDropped, "achievement %s", id))
	}
}

func (c *coordinator) resetAchievements() {
	c.enqueue(KindResetAchievements, func(ctx context.Context) {
		_, err := call(c, ctx, KindResetAchievements, c.platform.ResetAchievements)
		if err != nil {
			c.fail(ctx, KindPlatform, KindResetAchievements, err)
			return
		}
		c.cache.Clear()
	})
}

// showView 展示界面并占用 lane 直到界面关闭，不受 CallTimeout 限制
func (c *coordinator) showView(kind RequestKind, dismissed NotificationKind, show func(onDismiss func()) error) {
	c.enqueue(kind, func(ctx context.Context) {
		var once sync.Once
		closed := conc.NewPromise[struct{}]()
		onDismiss := func() {
			once.Do(func() {
				c.notify(notification{kind: dismissed})
				closed.Resolve(struct{}{})
			})
		}

		if err := show(onDismiss); err != nil {
			c.fail(ctx, KindPlatform, kind, err)
			return
		}
		c.logger.DebugContext(ctx, "view presented")

		if _, err := await(ctx, closed.Future()); err != nil {
			c.logger.DebugContext(ctx, "stopped waiting for view dismissal", "error", err)
		}
	})
}

func (c *coordinator) showLeaderboard(category string) {
	category = c.category(category)
	c.showView(KindShowLeaderboard, NotifyLeaderboardDismissed, func(onDismiss func()) error {
		return c.presenter.ShowLeaderboard(category, onDismiss)
	})
}

func (c *coordinator) showAchievements() {
	c.showView(KindShowAchievements, NotifyAchievementsDismissed, c.presenter.ShowAchievements)
}

func (c *coordinator) close() {
	c.lanes.close()
	c.cancel()
	c.reports.close()
}
