// Package social 为游戏提供统一的社交平台接入：认证、好友、排行榜与成就。
//
// Helper 是唯一入口。所有操作立即返回，结果通过 Listener 异步通知，
// 失败详情通过 LastError 查询。未认证时除 Authenticate 外的操作都被静默忽略。
package social

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/otel"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// poolReleaseTimeout Close 时等待在途任务退出的上限
const poolReleaseTimeout = 5 * time.Second

// Helper 社交平台门面
type Helper struct {
	cfg    *Config
	logger logger.Logger

	session    *sessionManager
	cache      *AchievementCache
	coord      *coordinator
	dispatcher *dispatcher
	metrics    *Metrics
	pool       *conc.Pool[struct{}]

	closed atomic.Bool
}

type helperOptions struct {
	logger         logger.Logger
	presenter      PresentationBridge
	registerer     prometheus.Registerer
	tracerProvider otel.TracerProvider
	listener       Listener
	reporter       ErrorReporter
	now            func() time.Time
}

// Option Helper 选项
type Option func(*helperOptions)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(o *helperOptions) {
		o.logger = l
	}
}

// WithPresenter 设置界面展示层，不设置时 Show 操作立即回调关闭
func WithPresenter(p PresentationBridge) Option {
	return func(o *helperOptions) {
		o.presenter = p
	}
}

// WithRegisterer 把指标注册到指定 Registerer
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *helperOptions) {
		o.registerer = r
	}
}

// WithTracerProvider 设置追踪提供者，默认使用全局提供者
func WithTracerProvider(tp otel.TracerProvider) Option {
	return func(o *helperOptions) {
		o.tracerProvider = tp
	}
}

// WithListener 设置初始监听者
func WithListener(l Listener) Option {
	return func(o *helperOptions) {
		o.listener = l
	}
}

// WithErrorReporter 设置错误上报，每次 LastError 更新时调用
func WithErrorReporter(r ErrorReporter) Option {
	return func(o *helperOptions) {
		o.reporter = r
	}
}

// WithClock 设置时间源
func WithClock(now func() time.Time) Option {
	return func(o *helperOptions) {
		o.now = now
	}
}

// New 创建 Helper
func New(cfg *Config, platform PlatformService, opts ...Option) (*Helper, error) {
	if platform == nil {
		return nil, errors.New("social: platform service is required")
	}

	newCfg, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	o := &helperOptions{
		logger:    logger.NewNoop(),
		presenter: nopPresenter{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	metrics := newMetrics(newCfg.MetricsNamespace)
	if o.registerer != nil {
		if err := metrics.Register(o.registerer); err != nil {
			return nil, errors.Wrap(err, "social: register metrics")
		}
	}

	pool := conc.NewPool[struct{}](newCfg.PoolSize)
	session := newSessionManager(o.logger.Named("social.session"), o.now, o.reporter)
	cache := NewAchievementCache()
	disp := newDispatcher(o.logger.Named("social.dispatcher"), metrics, newCfg.DispatchBuffer)
	disp.setListener(o.listener)

	ctx, cancel := context.WithCancel(context.Background())
	coordLogger := o.logger.Named("social.coordinator")
	coord := &coordinator{
		cfg:        newCfg,
		logger:     coordLogger,
		platform:   platform,
		presenter:  o.presenter,
		session:    session,
		cache:      cache,
		lanes:      newLaneSet(pool, coordLogger, metrics, newCfg.MaxQueuedPerKind),
		reports:    newAchievementReports(),
		dispatcher: disp,
		metrics:    metrics,
		tracer:     o.tracerProvider.Tracer("social"),
		now:        o.now,
		ctx:        ctx,
		cancel:     cancel,
	}

	h := &Helper{
		cfg:        newCfg,
		logger:     o.logger.Named("social"),
		session:    session,
		cache:      cache,
		coord:      coord,
		dispatcher: disp,
		metrics:    metrics,
		pool:       pool,
	}

	h.logger.Info("social helper created",
		"default_leaderboard", newCfg.DefaultLeaderboard,
		"max_queued_per_kind", newCfg.MaxQueuedPerKind,
		"call_timeout", newCfg.CallTimeout,
	)
	return h, nil
}

// Config 返回生效的配置
func (h *Helper) Config() *Config {
	return h.cfg
}

// Metrics 返回指标
func (h *Helper) Metrics() *Metrics {
	return h.metrics
}

// SetListener 注册监听者，替换已有的监听者，nil 表示取消注册
func (h *Helper) SetListener(l Listener) {
	h.dispatcher.setListener(l)
}

// IsAvailable 本地玩家是否已认证
func (h *Helper) IsAvailable() bool {
	return h.session.available()
}

// State 返回认证状态
func (h *Helper) State() AuthState {
	return h.session.currentState()
}

// LocalPlayer 返回已认证的本地玩家
func (h *Helper) LocalPlayer() (PlayerRef, bool) {
	if !h.session.available() {
		return PlayerRef{}, false
	}
	return h.session.player(), true
}

// LastError 返回最近一次失败
func (h *Helper) LastError() (ErrorRecord, bool) {
	return h.session.lastError()
}

func (h *Helper) usable(op RequestKind) bool {
	if h.closed.Load() {
		h.logger.Debug("helper closed, request ignored", "request_kind", op.String())
		return false
	}
	return true
}

// Authenticate 认证本地玩家，已认证或认证中时忽略
func (h *Helper) Authenticate() {
	if h.usable(KindAuthenticate) {
		h.coord.authenticate()
	}
}

// HandleAuthenticationLost 平台会话失效时调用，状态回到 Unauthenticated 并清空成就缓存
func (h *Helper) HandleAuthenticationLost() {
	if h.usable(KindAuthenticate) {
		h.coord.authenticationLost()
	}
}

// GetFriends 获取好友列表，结果通过 OnFriendListReceived 通知
func (h *Helper) GetFriends() {
	if h.usable(KindFetchFriends) {
		h.coord.getFriends()
	}
}

// GetPlayerInfo 批量获取玩家信息，结果通过 OnPlayerInfoReceived 通知
func (h *Helper) GetPlayerInfo(ids []string) {
	if h.usable(KindFetchPlayerInfo) {
		h.coord.getPlayerInfo(ids)
	}
}

// SubmitScore 提交分数，category 为空时使用默认排行榜
func (h *Helper) SubmitScore(value int64, category string) {
	if h.usable(KindSubmitScore) {
		h.coord.submitScore(value, category)
	}
}

// GetLocalPlayerHighScore 获取本地玩家在默认排行榜上的最好成绩
func (h *Helper) GetLocalPlayerHighScore() {
	if h.usable(KindFetchLocalScore) {
		h.coord.getLocalPlayerHighScore()
	}
}

// GetScores 获取一页分数，结果通过 OnScoresReceived 通知
func (h *Helper) GetScores(q LeaderboardQuery) {
	if h.usable(KindFetchScores) {
		h.coord.getScores(q)
	}
}

// GetScoresAndAlias 获取默认排行榜第一页分数及玩家别名
func (h *Helper) GetScoresAndAlias() {
	h.GetScoresAndAliasForLeaderboard(LeaderboardQuery{})
}

// GetScoresAndAliasForLeaderboard 获取指定排行榜的分数及玩家别名，
// 结果通过 OnScoresAndAliasForLeaderboardReceived 通知
func (h *Helper) GetScoresAndAliasForLeaderboard(q LeaderboardQuery) {
	if h.usable(KindFetchAliasScores) {
		h.coord.getScoresAndAlias(q)
	}
}

// LoadAchievements 从平台加载成就并整体替换缓存
func (h *Helper) LoadAchievements() {
	if h.usable(KindLoadAchievements) {
		h.coord.loadAchievements()
	}
}

// ReportAchievement 上报成就进度，percent 会被限制在 [0, 100]。
// 缓存立即更新，不等待平台确认。
func (h *Helper) ReportAchievement(id string, percent float64) {
	if h.usable(KindReportAchievement) {
		h.coord.reportAchievement(id, percent)
	}
}

// ResetAchievements 重置全部成就，成功后清空缓存
func (h *Helper) ResetAchievements() {
	if h.usable(KindResetAchievements) {
		h.coord.resetAchievements()
	}
}

// GetAchievement 返回缓存中的成就，不存在时创建零进度记录
func (h *Helper) GetAchievement(id string) AchievementRecord {
	return h.cache.Get(id)
}

// AchievementSnapshot 返回成就缓存的拷贝
func (h *Helper) AchievementSnapshot() map[string]AchievementRecord {
	return h.cache.Snapshot()
}

// ShowLeaderboard 展示默认排行榜
func (h *Helper) ShowLeaderboard() {
	h.ShowLeaderboardFor("")
}

// ShowLeaderboardFor 展示指定排行榜，关闭后通知 OnLeaderboardViewDismissed
func (h *Helper) ShowLeaderboardFor(category string) {
	if h.usable(KindShowLeaderboard) {
		h.coord.showLeaderboard(category)
	}
}

// ShowAchievements 展示成就界面，关闭后通知 OnAchievementsViewDismissed
func (h *Helper) ShowAchievements() {
	if h.usable(KindShowAchievements) {
		h.coord.showAchievements()
	}
}

// Close 停止接收请求，等待在途任务退出并分发剩余通知
func (h *Helper) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	h.coord.close()
	err := h.pool.ReleaseTimeout(poolReleaseTimeout)
	h.dispatcher.close()

	h.logger.Info("social helper closed")
	if err != nil {
		return errors.Wrap(err, "social: release pool")
	}
	return nil
}
