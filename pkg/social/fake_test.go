package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// fakePlatform 记录调用的平台实现，默认立即返回成功
type fakePlatform struct {
	mu    sync.Mutex
	calls []string

	player  PlayerRef
	authErr error
	authFn  func() *conc.Future[PlayerRef]

	friendIDs  []string
	friendsErr error
	players    map[string]PlayerRef
	playersErr error

	submitErr error
	submitted []submitCall

	scores    []ScoreEntry
	scoresErr error
	queries   []LeaderboardQuery

	localScoreFn func(n int) *conc.Future[ScoreEntry]

	achievements    []AchievementRecord
	achievementsErr error
	reported        []reportCall
	reportErr       error
	reportFn        func(id string, percent float64) *conc.Future[struct{}]
	resetErr        error
}

type submitCall struct {
	category string
	value    int64
}

type reportCall struct {
	id      string
	percent float64
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		player:  PlayerRef{ID: "p-local", Alias: "Me"},
		players: map[string]PlayerRef{},
	}
}

func (f *fakePlatform) record(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePlatform) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePlatform) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePlatform) Authenticate(context.Context) *conc.Future[PlayerRef] {
	f.record("authenticate")
	if f.authFn != nil {
		return f.authFn()
	}
	if f.authErr != nil {
		return conc.Failed[PlayerRef](f.authErr)
	}
	return conc.Resolved(f.player)
}

func (f *fakePlatform) FriendIDs(context.Context) *conc.Future[[]string] {
	f.record("friend_ids")
	if f.friendsErr != nil {
		return conc.Failed[[]string](f.friendsErr)
	}
	return conc.Resolved(f.friendIDs)
}

func (f *fakePlatform) LoadPlayers(_ context.Context, ids []string) *conc.Future[[]PlayerRef] {
	f.record("load_players")
	if f.playersErr != nil {
		return conc.Failed[[]PlayerRef](f.playersErr)
	}
	out := make([]PlayerRef, 0, len(ids))
	// 逆序返回，验证结果按分数顺序合并
	for i := len(ids) - 1; i >= 0; i-- {
		if p, ok := f.players[ids[i]]; ok {
			out = append(out, p)
		}
	}
	return conc.Resolved(out)
}

func (f *fakePlatform) SubmitScore(_ context.Context, category string, value int64) *conc.Future[struct{}] {
	f.record("submit_score")
	f.mu.Lock()
	f.submitted = append(f.submitted, submitCall{category: category, value: value})
	f.mu.Unlock()
	if f.submitErr != nil {
		return conc.Failed[struct{}](f.submitErr)
	}
	return conc.Resolved(struct{}{})
}

func (f *fakePlatform) LoadScores(_ context.Context, q LeaderboardQuery) *conc.Future[[]ScoreEntry] {
	f.record("load_scores")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.scoresErr != nil {
		return conc.Failed[[]ScoreEntry](f.scoresErr)
	}
	return conc.Resolved(append([]ScoreEntry(nil), f.scores...))
}

func (f *fakePlatform) LoadLocalPlayerScore(_ context.Context, category string) *conc.Future[ScoreEntry] {
	n := f.record("load_local_score")
	if f.localScoreFn != nil {
		return f.localScoreFn(n)
	}
	return conc.Resolved(ScoreEntry{PlayerID: f.player.ID, Category: category, Value: 1, Rank: 1})
}

func (f *fakePlatform) LoadAchievements(context.Context) *conc.Future[[]AchievementRecord] {
	f.record("load_achievements")
	if f.achievementsErr != nil {
		return conc.Failed[[]AchievementRecord](f.achievementsErr)
	}
	return conc.Resolved(append([]AchievementRecord(nil), f.achievements...))
}

func (f *fakePlatform) ReportAchievement(_ context.Context, id string, percent float64) *conc.Future[struct{}] {
	f.record("report_achievement")
	f.mu.Lock()
	f.reported = append(f.reported, reportCall{id: id, percent: percent})
	f.mu.Unlock()
	if f.reportFn != nil {
		return f.reportFn(id, percent)
	}
	if f.reportErr != nil {
		return conc.Failed[struct{}](f.reportErr)
	}
	return conc.Resolved(struct{}{})
}

func (f *fakePlatform) reportedCalls() []reportCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reportCall(nil), f.reported...)
}

// reportsFor 返回某个成就按调用顺序上报的进度
func (f *fakePlatform) reportsFor(id string) []float64 {
	var out []float64
	for _, r := range f.reportedCalls() {
		if r.id == id {
			out = append(out, r.percent)
		}
	}
	return out
}

func (f *fakePlatform) ResetAchievements(context.Context) *conc.Future[struct{}] {
	f.record("reset_achievements")
	if f.resetErr != nil {
		return conc.Failed[struct{}](f.resetErr)
	}
	return conc.Resolved(struct{}{})
}

var _ PlatformService = (*fakePlatform)(nil)

// event 监听者收到的一次回调
type event struct {
	kind    NotificationKind
	players []PlayerRef
	scores  []ScoreEntry
	score   ScoreEntry
	aliases AliasScores
	success bool
}

// recorder 记录所有回调的监听者
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) OnLocalPlayerAuthenticationChanged() {
	r.add(event{kind: NotifyAuthenticationChanged})
}
func (r *recorder) OnFriendListReceived(p []PlayerRef) {
	r.add(event{kind: NotifyFriendList, players: p})
}
func (r *recorder) OnPlayerInfoReceived(p []PlayerRef) {
	r.add(event{kind: NotifyPlayerInfo, players: p})
}
func (r *recorder) OnScoresSubmitted(ok bool) {
	r.add(event{kind: NotifyScoresSubmitted, success: ok})
}
func (r *recorder) OnScoresReceived(s []ScoreEntry) {
	r.add(event{kind: NotifyScores, scores: s})
}
func (r *recorder) OnLocalPlayerScoreReceived(s ScoreEntry) {
	r.add(event{kind: NotifyLocalPlayerScore, score: s})
}
func (r *recorder) OnScoresAndAliasForLeaderboardReceived(a AliasScores) {
	r.add(event{kind: NotifyAliasScores, aliases: a})
}
func (r *recorder) OnLeaderboardViewDismissed() {
	r.add(event{kind: NotifyLeaderboardDismissed})
}
func (r *recorder) OnAchievementsViewDismissed() {
	r.add(event{kind: NotifyAchievementsDismissed})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

// waitFor 等待至少 n 条回调
func (r *recorder) waitFor(t *testing.T, n int) []event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.snapshot()) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

// fakePresenter 记录展示请求，由测试触发关闭
type fakePresenter struct {
	mu         sync.Mutex
	categories []string
	dismiss    []func()
	err        error
}

func (p *fakePresenter) ShowLeaderboard(category string, onDismiss func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.categories = append(p.categories, category)
	p.dismiss = append(p.dismiss, onDismiss)
	return nil
}

func (p *fakePresenter) ShowAchievements(onDismiss func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.dismiss = append(p.dismiss, onDismiss)
	return nil
}

func (p *fakePresenter) shown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dismiss)
}

func (p *fakePresenter) dismissAt(i int) {
	p.mu.Lock()
	fn := p.dismiss[i]
	p.mu.Unlock()
	fn()
}
