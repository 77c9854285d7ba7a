// Package scenario 驱动演示流程：登录、上报成就、提交分数、拉取排行榜并打开原生界面。
package scenario

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// ErrStepTimeout 等待通知超时
var ErrStepTimeout = errors.New("scenario: step timed out")

// Runner 按 cron 调度执行演示轮次，实现 app.Server
type Runner struct {
	cfg      *Config
	helper   *social.Helper
	events   <-chan social.NotificationKind
	logger   logger.Logger
	onFinish func()

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	// sem 容量为 1，持有者正在执行一轮；Stop 取得后不再归还
	sem    chan struct{}
	rounds atomic.Int64
	result   *conc.Promise[struct{}]
	once     sync.Once
	stopOnce sync.Once
}

// RunnerOption Runner 选项
type RunnerOption func(*Runner)

// WithOnFinish 全部轮次完成或出错后回调，通常用于让应用退出
func WithOnFinish(fn func()) RunnerOption {
	return func(r *Runner) {
		r.onFinish = fn
	}
}

// NewRunner 创建 Runner，listener 必须已注册到 helper
func NewRunner(cfg *Config, helper *social.Helper, listener *LoggingListener, l logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		helper: helper,
		events: listener.Events(),
		logger: l.Named("scenario"),
		sem:    make(chan struct{}, 1),
		result: conc.NewPromise[struct{}](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 立即执行第一轮，之后按 Schedule 触发
func (r *Runner) Start(ctx context.Context) error {
	cl := cronLogger{r.logger}
	r.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	if _, err := r.cron.AddFunc(r.cfg.Schedule, r.tick); err != nil {
		return errors.Wrapf(err, "scenario: invalid schedule %q", r.cfg.Schedule)
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	conc.Go(func() (struct{}, error) {
		r.tick()
		return struct{}{}, nil
	})
	r.cron.Start()
	r.logger.Info("scenario started", "schedule", r.cfg.Schedule, "rounds", r.cfg.Rounds)
	return nil
}

// Wait 等待全部轮次结束或 Stop
func (r *Runner) Wait() error {
	err := r.result.Future().Err()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop 中止调度，等待进行中的一轮退出
func (r *Runner) Stop() error {
	if r.cancel == nil {
		return nil
	}
	r.stopOnce.Do(func() {
		r.cancel()
		r.sem <- struct{}{}
		r.finish(context.Canceled)
	})
	return r.Wait()
}

// tick 执行一轮，上一轮未结束时跳过
func (r *Runner) tick() {
	select {
	case r.sem <- struct{}{}:
	default:
		r.logger.Debug("previous round still running, skipped")
		return
	}
	defer func() { <-r.sem }()

	if r.ctx.Err() != nil {
		return
	}
	round := int(r.rounds.Add(1))
	if r.cfg.Rounds >= 0 && round > r.cfg.Rounds {
		return
	}

	if err := r.round(r.ctx, round); err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("scenario aborted", "round", round, "error", err)
		}
		r.finish(errors.Wrapf(err, "round %d", round))
		return
	}
	if round == r.cfg.Rounds {
		r.logger.Info("scenario finished", "rounds", round)
		r.finish(nil)
	}
}

// finish 只生效一次
func (r *Runner) finish(err error) {
	r.once.Do(func() {
		r.cron.Stop()
		r.result.Complete(struct{}{}, err)
		if r.onFinish != nil {
			r.onFinish()
		}
	})
}

func (r *Runner) round(ctx context.Context, round int) error {
	r.logger.Info("round started", "round", round)

	if !r.helper.IsAvailable() {
		r.helper.Authenticate()
		if err := r.await(ctx, social.NotifyAuthenticationChanged); err != nil {
			return err
		}
		if !r.helper.IsAvailable() {
			if rec, ok := r.helper.LastError(); ok {
				return errors.Wrap(rec.Err, "authentication failed")
			}
			return errors.New("authentication failed")
		}
		player, _ := r.helper.LocalPlayer()
		r.logger.Info("signed in", "player_id", player.ID, "alias", player.Alias)
	}

	r.helper.LoadAchievements()
	for _, id := range sortedKeys(r.cfg.Achievements) {
		r.helper.ReportAchievement(id, r.cfg.Achievements[id])
	}

	score := r.cfg.SubmitScore + int64(round-1)*r.cfg.ScoreStep
	steps := []struct {
		call func()
		want social.NotificationKind
	}{
		{func() { r.helper.SubmitScore(score, "") }, social.NotifyScoresSubmitted},
		{r.helper.GetFriends, social.NotifyFriendList},
		{r.helper.GetLocalPlayerHighScore, social.NotifyLocalPlayerScore},
		{r.helper.GetScoresAndAlias, social.NotifyAliasScores},
		{r.helper.ShowLeaderboard, social.NotifyLeaderboardDismissed},
		{r.helper.ShowAchievements, social.NotifyAchievementsDismissed},
	}
	for _, step := range steps {
		step.call()
		if err := r.await(ctx, step.want); err != nil {
			return err
		}
	}

	for id, rec := range r.helper.AchievementSnapshot() {
		r.logger.Info("achievement", "id", id, "percent", rec.PercentComplete, "completed", rec.Completed)
	}
	return nil
}

// await 等待指定类型的通知，其他通知被跳过
func (r *Runner) await(ctx context.Context, want social.NotificationKind) error {
	timer := time.NewTimer(r.cfg.StepTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.Wrapf(ErrStepTimeout, "waiting for %s", want)
		case got := <-r.events:
			if got == want {
				return nil
			}
			r.logger.Debug("skipping notification", "kind", got.String(), "want", want.String())
		}
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cronLogger 把 cron 的日志转到项目日志
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
