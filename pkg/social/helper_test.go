package social

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lk2023060901/xdooria-social/pkg/otel"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

func newTestHelper(t *testing.T, p PlatformService, cfg *Config, opts ...Option) (*Helper, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithListener(rec)}, opts...)
	h, err := New(cfg, p, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, rec
}

// authenticated 创建并完成认证的 Helper，返回时认证通知已被消费
func authenticated(t *testing.T, p *fakePlatform, cfg *Config, opts ...Option) (*Helper, *recorder) {
	t.Helper()
	h, rec := newTestHelper(t, p, cfg, opts...)
	h.Authenticate()
	rec.waitFor(t, 1)
	require.True(t, h.IsAvailable())
	rec.mu.Lock()
	rec.events = nil
	rec.mu.Unlock()
	return h, rec
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	_, err = New(&Config{ScorePageSize: 1000}, newFakePlatform())
	require.Error(t, err)

	h, err := New(nil, newFakePlatform())
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, DefaultLeaderboard, h.Config().DefaultLeaderboard)
	assert.Equal(t, Unauthenticated, h.State())
}

func TestGatedOperationsAreSilent(t *testing.T) {
	p := newFakePlatform()
	presenter := &fakePresenter{}
	h, rec := newTestHelper(t, p, nil, WithPresenter(presenter))

	h.GetFriends()
	h.GetPlayerInfo([]string{"a"})
	h.SubmitScore(10, "")
	h.GetLocalPlayerHighScore()
	h.GetScores(LeaderboardQuery{})
	h.GetScoresAndAlias()
	h.LoadAchievements()
	h.ReportAchievement("a", 50)
	h.ResetAchievements()
	h.ShowLeaderboard()
	h.ShowAchievements()

	require.NoError(t, h.Close())

	assert.Zero(t, p.totalCalls())
	assert.Zero(t, presenter.shown())
	assert.Empty(t, rec.snapshot())
	_, hasErr := h.LastError()
	assert.False(t, hasErr)
	assert.Equal(t, 0, h.cache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().RequestSkipped.WithLabelValues(KindFetchFriends.String())))
}

func TestAuthenticateIsIdempotent(t *testing.T) {
	p := newFakePlatform()
	promise := conc.NewPromise[PlayerRef]()
	p.authFn = promise.Future

	h, rec := newTestHelper(t, p, nil)

	h.Authenticate()
	h.Authenticate()
	assert.Equal(t, Authenticating, h.State())

	promise.Resolve(PlayerRef{ID: "p1", Alias: "Ann"})
	rec.waitFor(t, 1)

	assert.Equal(t, Authenticated, h.State())
	player, ok := h.LocalPlayer()
	require.True(t, ok)
	assert.Equal(t, "Ann", player.Alias)

	h.Authenticate()
	require.NoError(t, h.Close())

	assert.Equal(t, 1, p.callCount("authenticate"))
	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, NotifyAuthenticationChanged, events[0].kind)
}

func TestAuthenticateFailure(t *testing.T) {
	p := newFakePlatform()
	p.authErr = errors.New("user cancelled")

	h, rec := newTestHelper(t, p, nil)
	h.Authenticate()
	events := rec.waitFor(t, 1)

	assert.Equal(t, NotifyAuthenticationChanged, events[0].kind)
	assert.Equal(t, Failed, h.State())
	assert.False(t, h.IsAvailable())

	last, ok := h.LastError()
	require.True(t, ok)
	assert.Equal(t, KindAuthentication, last.Kind)
	assert.Equal(t, KindAuthenticate, last.Op)
	assert.True(t, IsAuthenticationFailed(last.Err))
	assert.Contains(t, last.Error(), "user cancelled")

	// Failed 可以重试
	p.authErr = nil
	h.Authenticate()
	rec.waitFor(t, 2)
	assert.Equal(t, Authenticated, h.State())
	assert.Equal(t, 2, p.callCount("authenticate"))
}

func TestHandleAuthenticationLost(t *testing.T) {
	p := newFakePlatform()
	h, rec := authenticated(t, p, nil)

	h.ReportAchievement("a", 10)
	h.HandleAuthenticationLost()
	rec.waitFor(t, 1)

	assert.Equal(t, Unauthenticated, h.State())
	assert.Empty(t, h.AchievementSnapshot())
	_, ok := h.LocalPlayer()
	assert.False(t, ok)

	// 重复登出不再通知
	h.HandleAuthenticationLost()
	h.GetFriends()
	require.NoError(t, h.Close())
	assert.Len(t, rec.snapshot(), 1)
	assert.Zero(t, p.callCount("friend_ids"))
}

func TestStaleAuthenticationIsDiscarded(t *testing.T) {
	p := newFakePlatform()
	stale := conc.NewPromise[PlayerRef]()
	fresh := conc.NewPromise[PlayerRef]()
	var attempts atomic.Int32
	p.authFn = func() *conc.Future[PlayerRef] {
		if attempts.Add(1) == 1 {
			return stale.Future()
		}
		return fresh.Future()
	}
	h, rec := newTestHelper(t, p, nil)

	h.Authenticate()
	require.Eventually(t, func() bool { return p.callCount("authenticate") == 1 }, 2*time.Second, 5*time.Millisecond)

	// 认证途中会话失效，随后重新认证
	h.HandleAuthenticationLost()
	rec.waitFor(t, 1)
	h.Authenticate()
	assert.Equal(t, Authenticating, h.State())

	stale.Resolve(PlayerRef{ID: "p-stale", Alias: "Old"})
	require.Eventually(t, func() bool { return p.callCount("authenticate") == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, Authenticating, h.State())
	_, ok := h.LocalPlayer()
	assert.False(t, ok)
	assert.Len(t, rec.snapshot(), 1)

	fresh.Resolve(PlayerRef{ID: "p-fresh", Alias: "New"})
	rec.waitFor(t, 2)
	assert.Equal(t, Authenticated, h.State())
	player, ok := h.LocalPlayer()
	require.True(t, ok)
	assert.Equal(t, "p-fresh", player.ID)

	require.NoError(t, h.Close())
	assert.Len(t, rec.snapshot(), 2)
}

func TestStaleFailureDoesNotOverrideSignOut(t *testing.T) {
	p := newFakePlatform()
	pending := conc.NewPromise[PlayerRef]()
	p.authFn = pending.Future
	h, rec := newTestHelper(t, p, nil)

	h.Authenticate()
	require.Eventually(t, func() bool { return p.callCount("authenticate") == 1 }, 2*time.Second, 5*time.Millisecond)
	h.HandleAuthenticationLost()
	rec.waitFor(t, 1)

	pending.Reject(errors.New("late failure"))
	require.Eventually(t, func() bool { return !h.coord.lanes.isPending(KindAuthenticate) }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	assert.Equal(t, Unauthenticated, h.State())
	_, hasErr := h.LastError()
	assert.False(t, hasErr)
	assert.Len(t, rec.snapshot(), 1)
}

func TestReportAchievementClamps(t *testing.T) {
	p := newFakePlatform()
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("win_10", 150)
	rec := h.GetAchievement("win_10")
	assert.Equal(t, 100.0, rec.PercentComplete)
	assert.True(t, rec.Completed)

	h.ReportAchievement("lose_10", -5)
	assert.Equal(t, 0.0, h.GetAchievement("lose_10").PercentComplete)

	require.Eventually(t, func() bool { return len(p.reportedCalls()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []reportCall{
		{id: "win_10", percent: 100},
		{id: "lose_10", percent: 0},
	}, p.reportedCalls())
}

func TestReportAchievementReportedValueWins(t *testing.T) {
	p := newFakePlatform()
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("ach_01", 80)
	require.Eventually(t, func() bool { return len(p.reportsFor("ach_01")) == 1 }, 2*time.Second, 5*time.Millisecond)

	// 较低的进度同样写入缓存并上报
	h.ReportAchievement("ach_01", 40)
	assert.Equal(t, 40.0, h.GetAchievement("ach_01").PercentComplete)
	assert.False(t, h.GetAchievement("ach_01").Completed)

	require.Eventually(t, func() bool { return len(p.reportsFor("ach_01")) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []float64{80, 40}, p.reportsFor("ach_01"))
}

func TestReportAchievementBurstReachesPlatform(t *testing.T) {
	p := newFakePlatform()
	gate := conc.NewPromise[struct{}]()
	p.reportFn = func(string, float64) *conc.Future[struct{}] { return gate.Future() }
	h, _ := authenticated(t, p, &Config{MaxQueuedPerKind: 2})

	const n = 20
	for i := 0; i < n; i++ {
		h.ReportAchievement(fmt.Sprintf("ach_%02d", i), 100)
	}
	for i := 0; i < n; i++ {
		assert.True(t, h.GetAchievement(fmt.Sprintf("ach_%02d", i)).Completed)
	}

	// 不同成就互不等待，全部同时在途
	require.Eventually(t, func() bool { return len(p.reportedCalls()) == n }, 2*time.Second, 5*time.Millisecond)
	gate.Resolve(struct{}{})
	require.Eventually(t, func() bool { return h.coord.reports.pending() == 0 }, 2*time.Second, 5*time.Millisecond)

	_, hasErr := h.LastError()
	assert.False(t, hasErr)
	assert.Zero(t, testutil.ToFloat64(h.Metrics().RequestDropped.WithLabelValues(KindReportAchievement.String())))
	assert.Equal(t, float64(n), testutil.ToFloat64(h.Metrics().RequestTotal.WithLabelValues(KindReportAchievement.String(), "success")))
}

func TestReportAchievementCoalescesPerID(t *testing.T) {
	p := newFakePlatform()
	first := conc.NewPromise[struct{}]()
	p.reportFn = func(_ string, percent float64) *conc.Future[struct{}] {
		if percent == 10 {
			return first.Future()
		}
		return conc.Resolved(struct{}{})
	}
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("a", 10)
	require.Eventually(t, func() bool { return len(p.reportsFor("a")) == 1 }, 2*time.Second, 5*time.Millisecond)

	h.ReportAchievement("a", 20)
	h.ReportAchievement("a", 30)
	h.ReportAchievement("b", 50)
	assert.Equal(t, 30.0, h.GetAchievement("a").PercentComplete)

	// b 不等待 a
	require.Eventually(t, func() bool { return len(p.reportsFor("b")) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []float64{10}, p.reportsFor("a"))

	first.Resolve(struct{}{})
	require.Eventually(t, func() bool { return h.coord.reports.pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []float64{10, 30}, p.reportsFor("a"))
}

func TestReportAchievementFailure(t *testing.T) {
	p := newFakePlatform()
	p.reportErr = errors.New("quota exceeded")
	h, rec := authenticated(t, p, nil)

	h.ReportAchievement("ach_01", 60)
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	last, _ := h.LastError()
	assert.Equal(t, KindPlatform, last.Kind)
	assert.Equal(t, KindReportAchievement, last.Op)
	assert.True(t, IsPlatform(last.Err))
	assert.Contains(t, last.Error(), "quota exceeded")

	// 缓存保留乐观写入的进度，且没有通知
	assert.Equal(t, 60.0, h.GetAchievement("ach_01").PercentComplete)
	assert.Empty(t, rec.snapshot())
}

func TestGetAchievementLazilyCreates(t *testing.T) {
	h, _ := newTestHelper(t, newFakePlatform(), nil)
	rec := h.GetAchievement("unknown")
	assert.Equal(t, AchievementRecord{ID: "unknown"}, rec)
	assert.Contains(t, h.AchievementSnapshot(), "unknown")
}

func TestLoadAchievementsReplacesCache(t *testing.T) {
	p := newFakePlatform()
	p.achievements = []AchievementRecord{{ID: "b", PercentComplete: 30}}
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("a", 20)
	h.LoadAchievements()

	require.Eventually(t, func() bool {
		_, ok := h.AchievementSnapshot()["b"]
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	snap := h.AchievementSnapshot()
	assert.Len(t, snap, 1)
	assert.NotContains(t, snap, "a")
	assert.Equal(t, 30.0, snap["b"].PercentComplete)
}

func TestLoadAchievementsFailureKeepsCache(t *testing.T) {
	p := newFakePlatform()
	p.achievementsErr = errors.New("offline")
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("a", 20)
	h.LoadAchievements()
	require.NoError(t, h.Close())

	assert.Contains(t, h.AchievementSnapshot(), "a")
	last, ok := h.LastError()
	require.True(t, ok)
	assert.Equal(t, KindPlatform, last.Kind)
	assert.True(t, IsPlatform(last.Err))
}

func TestResetAchievements(t *testing.T) {
	p := newFakePlatform()
	h, _ := authenticated(t, p, nil)

	h.ReportAchievement("a", 20)
	h.ResetAchievements()
	require.Eventually(t, func() bool { return h.cache.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, p.callCount("reset_achievements"))
}

func TestResetAchievementsFailureKeepsCache(t *testing.T) {
	p := newFakePlatform()
	p.resetErr = errors.New("forbidden")
	h, rec := authenticated(t, p, nil)

	h.ReportAchievement("a", 20)
	require.Eventually(t, func() bool { return h.coord.reports.pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	h.ResetAchievements()
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	last, _ := h.LastError()
	assert.Equal(t, KindPlatform, last.Kind)
	assert.Equal(t, KindResetAchievements, last.Op)
	assert.Equal(t, 1, p.callCount("reset_achievements"))
	assert.Equal(t, 20.0, h.AchievementSnapshot()["a"].PercentComplete)
	assert.Empty(t, rec.snapshot())
}

func TestLocalPlayerHighScoreFailure(t *testing.T) {
	p := newFakePlatform()
	p.localScoreFn = func(int) *conc.Future[ScoreEntry] {
		return conc.Failed[ScoreEntry](errors.New("leaderboard missing"))
	}
	h, rec := authenticated(t, p, nil)

	h.GetLocalPlayerHighScore()
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	last, _ := h.LastError()
	assert.Equal(t, KindPlatform, last.Kind)
	assert.Equal(t, KindFetchLocalScore, last.Op)
	assert.Contains(t, last.Error(), "leaderboard missing")
	assert.Empty(t, rec.snapshot())
}

func TestLocalPlayerHighScoreOrdering(t *testing.T) {
	p := newFakePlatform()
	first := conc.NewPromise[ScoreEntry]()
	second := conc.NewPromise[ScoreEntry]()
	p.localScoreFn = func(n int) *conc.Future[ScoreEntry] {
		if n == 1 {
			return first.Future()
		}
		return second.Future()
	}
	h, rec := authenticated(t, p, nil)

	h.GetLocalPlayerHighScore()
	h.GetLocalPlayerHighScore()

	require.Eventually(t, func() bool { return p.callCount("load_local_score") == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, h.coord.lanes.isPending(KindFetchLocalScore))
	assert.Equal(t, 1, h.coord.lanes.queued(KindFetchLocalScore))

	// 第二个请求在第一个完成前不会发出
	second.Resolve(ScoreEntry{Value: 20})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, p.callCount("load_local_score"))

	first.Resolve(ScoreEntry{Value: 10})
	events := rec.waitFor(t, 2)
	assert.Equal(t, int64(10), events[0].score.Value)
	assert.Equal(t, int64(20), events[1].score.Value)
	assert.Equal(t, 2, p.callCount("load_local_score"))

	require.Eventually(t, func() bool { return !h.coord.lanes.isPending(KindFetchLocalScore) }, 2*time.Second, 5*time.Millisecond)
}

func TestQueueOverflowIsDropped(t *testing.T) {
	p := newFakePlatform()
	pending := conc.NewPromise[ScoreEntry]()
	p.localScoreFn = func(int) *conc.Future[ScoreEntry] { return pending.Future() }
	h, rec := authenticated(t, p, &Config{MaxQueuedPerKind: -1})

	h.GetLocalPlayerHighScore()
	require.Eventually(t, func() bool { return h.coord.lanes.isPending(KindFetchLocalScore) }, 2*time.Second, 5*time.Millisecond)
	h.GetLocalPlayerHighScore()

	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().RequestDropped.WithLabelValues(KindFetchLocalScore.String())))

	pending.Resolve(ScoreEntry{Value: 7})
	rec.waitFor(t, 1)
	require.NoError(t, h.Close())
	assert.Len(t, rec.snapshot(), 1)
	assert.Equal(t, 1, p.callCount("load_local_score"))
}

func TestCallTimeout(t *testing.T) {
	p := newFakePlatform()
	never := conc.NewPromise[ScoreEntry]()
	p.localScoreFn = func(int) *conc.Future[ScoreEntry] { return never.Future() }
	h, rec := authenticated(t, p, &Config{CallTimeout: 20 * time.Millisecond})

	h.GetLocalPlayerHighScore()
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	last, _ := h.LastError()
	assert.Equal(t, KindPlatform, last.Kind)
	assert.ErrorIs(t, last.Err, context.DeadlineExceeded)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().RequestTotal.WithLabelValues(KindFetchLocalScore.String(), "timeout")))

	require.NoError(t, h.Close())
	assert.Empty(t, rec.snapshot())
}

func TestSubmitScore(t *testing.T) {
	t.Run("default category", func(t *testing.T) {
		p := newFakePlatform()
		h, rec := authenticated(t, p, nil)

		h.SubmitScore(1200, "")
		events := rec.waitFor(t, 1)
		assert.Equal(t, NotifyScoresSubmitted, events[0].kind)
		assert.True(t, events[0].success)
		require.Len(t, p.submitted, 1)
		assert.Equal(t, submitCall{category: DefaultLeaderboard, value: 1200}, p.submitted[0])
	})

	t.Run("failure", func(t *testing.T) {
		p := newFakePlatform()
		p.submitErr = errors.New("rejected")
		h, rec := authenticated(t, p, nil)

		h.SubmitScore(5, "weekly")
		events := rec.waitFor(t, 1)
		assert.False(t, events[0].success)

		last, ok := h.LastError()
		require.True(t, ok)
		assert.Equal(t, KindSubmitScore, last.Op)
		assert.Equal(t, "weekly", p.submitted[0].category)
	})
}

func TestGetScores(t *testing.T) {
	p := newFakePlatform()
	p.scores = []ScoreEntry{
		{PlayerID: "p2", Value: 300, Rank: 2},
		{PlayerID: "p1", Value: 500, Rank: 1},
	}
	h, rec := authenticated(t, p, &Config{ScorePageSize: 10})

	h.GetScores(LeaderboardQuery{TimeScope: TimeWeek})
	events := rec.waitFor(t, 1)

	require.Len(t, events[0].scores, 2)
	assert.Equal(t, "p1", events[0].scores[0].PlayerID)

	q := p.queries[0]
	assert.Equal(t, DefaultLeaderboard, q.Category)
	assert.Equal(t, 1, q.Start)
	assert.Equal(t, 10, q.Length)
	assert.Equal(t, TimeWeek, q.TimeScope)
}

func TestGetScoresFailure(t *testing.T) {
	p := newFakePlatform()
	p.scoresErr = errors.New("timeout")
	h, rec := authenticated(t, p, nil)

	h.GetScores(LeaderboardQuery{Category: "weekly"})
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	last, _ := h.LastError()
	assert.Equal(t, KindPlatform, last.Kind)
	assert.Equal(t, KindFetchScores, last.Op)
	assert.True(t, IsPlatform(last.Err))
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 1, p.callCount("load_scores"))
}

func TestScoresAndAliasJoin(t *testing.T) {
	p := newFakePlatform()
	p.scores = []ScoreEntry{
		{PlayerID: "p1", Value: 500, Rank: 1},
		{PlayerID: "p2", Value: 300, Rank: 2},
		{PlayerID: "p3", Value: 100, Rank: 3},
	}
	p.players = map[string]PlayerRef{
		"p1": {ID: "p1", Alias: "Ann"},
		"p2": {ID: "p2", Alias: "Bo"},
	}
	h, rec := authenticated(t, p, nil)

	h.GetScoresAndAlias()
	events := rec.waitFor(t, 1)
	require.Equal(t, NotifyAliasScores, events[0].kind)

	got := events[0].aliases
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Ann", "Bo", "p3"}, got.Aliases())
	assert.Equal(t, int64(500), got[0].Score.Value)
	assert.Equal(t, int64(300), got[1].Score.Value)

	bo, ok := got.Lookup("Bo")
	require.True(t, ok)
	assert.Equal(t, 2, bo.Rank)
}

func TestScoresAndAliasPartialFailure(t *testing.T) {
	p := newFakePlatform()
	p.scores = []ScoreEntry{{PlayerID: "p1", Value: 500, Rank: 1}}
	p.playersErr = errors.New("players unavailable")
	h, rec := authenticated(t, p, nil)

	h.GetScoresAndAliasForLeaderboard(LeaderboardQuery{Category: "season"})
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	assert.Empty(t, rec.snapshot())
	last, _ := h.LastError()
	assert.Equal(t, KindPartialResult, last.Kind)
	assert.True(t, errors.Is(last.Err, ErrPartialResult))
	assert.Equal(t, "season", p.queries[0].Category)
}

func TestGetFriends(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		p := newFakePlatform()
		p.friendIDs = []string{"f1", "f2"}
		p.players = map[string]PlayerRef{
			"f1": {ID: "f1", Alias: "Ann"},
			"f2": {ID: "f2", Alias: "Bo"},
		}
		h, rec := authenticated(t, p, nil)

		h.GetFriends()
		events := rec.waitFor(t, 1)
		require.Len(t, events[0].players, 2)
		for _, f := range events[0].players {
			assert.True(t, f.IsFriend)
		}
	})

	t.Run("no friends", func(t *testing.T) {
		p := newFakePlatform()
		h, rec := authenticated(t, p, nil)

		h.GetFriends()
		events := rec.waitFor(t, 1)
		assert.NotNil(t, events[0].players)
		assert.Empty(t, events[0].players)
		assert.Zero(t, p.callCount("load_players"))
	})

	t.Run("ids failure", func(t *testing.T) {
		p := newFakePlatform()
		p.friendsErr = errors.New("offline")
		h, rec := authenticated(t, p, nil)

		h.GetFriends()
		events := rec.waitFor(t, 1)
		assert.Empty(t, events[0].players)
		last, ok := h.LastError()
		require.True(t, ok)
		assert.Equal(t, KindPlatform, last.Kind)
	})

	t.Run("resolve failure", func(t *testing.T) {
		p := newFakePlatform()
		p.friendIDs = []string{"f1"}
		p.playersErr = errors.New("offline")
		h, rec := authenticated(t, p, nil)

		h.GetFriends()
		events := rec.waitFor(t, 1)
		assert.Empty(t, events[0].players)
		last, _ := h.LastError()
		assert.Equal(t, KindPartialResult, last.Kind)
	})
}

func TestGetPlayerInfo(t *testing.T) {
	p := newFakePlatform()
	p.players = map[string]PlayerRef{"p1": {ID: "p1", Alias: "Ann"}}
	h, rec := authenticated(t, p, nil)

	h.GetPlayerInfo(nil)
	h.GetPlayerInfo([]string{"p1"})
	events := rec.waitFor(t, 2)

	assert.Empty(t, events[0].players)
	require.Len(t, events[1].players, 1)
	assert.Equal(t, "Ann", events[1].players[0].Alias)
	assert.Equal(t, 1, p.callCount("load_players"))
}

func TestShowViews(t *testing.T) {
	p := newFakePlatform()
	presenter := &fakePresenter{}
	h, rec := authenticated(t, p, nil, WithPresenter(presenter))

	h.ShowLeaderboard()
	h.ShowLeaderboardFor("weekly")
	require.Eventually(t, func() bool { return presenter.shown() == 1 }, 2*time.Second, 5*time.Millisecond)

	// 第二个排行榜界面等第一个关闭后才展示
	presenter.dismissAt(0)
	presenter.dismissAt(0)
	require.Eventually(t, func() bool { return presenter.shown() == 2 }, 2*time.Second, 5*time.Millisecond)
	presenter.dismissAt(1)

	h.ShowAchievements()
	require.Eventually(t, func() bool { return presenter.shown() == 3 }, 2*time.Second, 5*time.Millisecond)
	presenter.dismissAt(2)

	events := rec.waitFor(t, 3)
	assert.Equal(t, NotifyLeaderboardDismissed, events[0].kind)
	assert.Equal(t, NotifyLeaderboardDismissed, events[1].kind)
	assert.Equal(t, NotifyAchievementsDismissed, events[2].kind)
	assert.Equal(t, []string{DefaultLeaderboard, "weekly"}, presenter.categories)

	require.NoError(t, h.Close())
	assert.Len(t, rec.snapshot(), 3)
}

func TestShowViewError(t *testing.T) {
	p := newFakePlatform()
	presenter := &fakePresenter{err: errors.New("no view controller")}
	h, rec := authenticated(t, p, nil, WithPresenter(presenter))

	h.ShowAchievements()
	require.Eventually(t, func() bool {
		_, ok := h.LastError()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	assert.Empty(t, rec.snapshot())
	last, _ := h.LastError()
	assert.Equal(t, KindShowAchievements, last.Op)
}

func TestDefaultPresenterDismissesImmediately(t *testing.T) {
	h, rec := authenticated(t, newFakePlatform(), nil)
	h.ShowLeaderboard()
	events := rec.waitFor(t, 1)
	assert.Equal(t, NotifyLeaderboardDismissed, events[0].kind)
}

func TestSetListenerReplaces(t *testing.T) {
	p := newFakePlatform()
	h, first := authenticated(t, p, nil)

	second := &recorder{}
	h.SetListener(second)
	h.SubmitScore(1, "")
	second.waitFor(t, 1)
	require.NoError(t, h.Close())
	assert.Empty(t, first.snapshot())
}

func TestMetricsAndSpans(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp, err := otel.New(&otel.Config{Enabled: true, ExporterType: otel.ExporterTypeNoop}, otel.WithSpanProcessor(spans))
	require.NoError(t, err)
	defer tp.Close()

	reg := prometheus.NewRegistry()
	p := newFakePlatform()
	h, rec := authenticated(t, p, nil, WithRegisterer(reg), WithTracerProvider(tp.TracerProvider()))

	h.SubmitScore(3, "")
	rec.waitFor(t, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().RequestTotal.WithLabelValues(KindSubmitScore.String(), "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().NotificationsTotal.WithLabelValues(NotifyScoresSubmitted.String())))

	names := make([]string, 0)
	for _, s := range spans.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "social.authenticate")
	assert.Contains(t, names, "social.submit_score")

	count, err := testutil.GatherAndCount(reg, "social_requests_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := newFakePlatform()
	h, _ := newTestHelper(t, p, nil)
	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.Close(), ErrClosed)

	h.Authenticate()
	assert.Zero(t, p.callCount("authenticate"))
}

func TestErrorReporterSeesEveryRecord(t *testing.T) {
	p := newFakePlatform()
	p.authErr = errors.New("user cancelled")
	p.playersErr = errors.New("players unavailable")
	p.scores = []ScoreEntry{{PlayerID: "p1", Value: 500, Rank: 1}}

	reported := make(chan ErrorRecord, 4)
	h, rec := newTestHelper(t, p, nil, WithErrorReporter(ErrorReporterFunc(func(r ErrorRecord) {
		reported <- r
	})))

	h.Authenticate()
	rec.waitFor(t, 1)
	first := <-reported
	assert.Equal(t, KindAuthentication, first.Kind)

	p.authErr = nil
	h.Authenticate()
	rec.waitFor(t, 2)

	h.GetScoresAndAlias()
	select {
	case second := <-reported:
		assert.Equal(t, KindPartialResult, second.Kind)
		assert.Equal(t, KindFetchAliasScores, second.Op)
		last, ok := h.LastError()
		require.True(t, ok)
		assert.Equal(t, second.At, last.At)
	case <-time.After(2 * time.Second):
		t.Fatal("partial result was not reported")
	}
}
