package scenario

import (
	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/social"
)

// LoggingListener 记录每条通知，并把通知类型转发给 Runner
type LoggingListener struct {
	logger logger.Logger
	events chan social.NotificationKind
}

// NewLoggingListener 创建监听者，buffer 为待 Runner 消费的通知容量
func NewLoggingListener(l logger.Logger, buffer int) *LoggingListener {
	return &LoggingListener{
		logger: l.Named("listener"),
		events: make(chan social.NotificationKind, buffer),
	}
}

// Events 通知类型流
func (l *LoggingListener) Events() <-chan social.NotificationKind {
	return l.events
}

// forward 不阻塞分发 goroutine，缓冲满时丢弃
func (l *LoggingListener) forward(kind social.NotificationKind) {
	select {
	case l.events <- kind:
	default:
		l.logger.Warn("event buffer full, dropping", "kind", kind.String())
	}
}

func (l *LoggingListener) OnLocalPlayerAuthenticationChanged() {
	l.logger.Info("authentication changed")
	l.forward(social.NotifyAuthenticationChanged)
}

func (l *LoggingListener) OnFriendListReceived(players []social.PlayerRef) {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	l.logger.Info("friend list received", "count", len(players), "friends", ids)
	l.forward(social.NotifyFriendList)
}

func (l *LoggingListener) OnPlayerInfoReceived(players []social.PlayerRef) {
	l.logger.Info("player info received", "count", len(players))
	l.forward(social.NotifyPlayerInfo)
}

func (l *LoggingListener) OnScoresSubmitted(success bool) {
	l.logger.Info("scores submitted", "success", success)
	l.forward(social.NotifyScoresSubmitted)
}

func (l *LoggingListener) OnScoresReceived(scores []social.ScoreEntry) {
	l.logger.Info("scores received", "count", len(scores))
	l.forward(social.NotifyScores)
}

func (l *LoggingListener) OnLocalPlayerScoreReceived(score social.ScoreEntry) {
	l.logger.Info("local player score received",
		"category", score.Category,
		"value", score.FormattedValue,
		"rank", score.Rank,
	)
	l.forward(social.NotifyLocalPlayerScore)
}

func (l *LoggingListener) OnScoresAndAliasForLeaderboardReceived(scores social.AliasScores) {
	for _, s := range scores {
		l.logger.Info("leaderboard row",
			"rank", s.Score.Rank,
			"alias", s.Alias,
			"score", s.Score.FormattedValue,
		)
	}
	l.forward(social.NotifyAliasScores)
}

func (l *LoggingListener) OnLeaderboardViewDismissed() {
	l.logger.Info("leaderboard view dismissed")
	l.forward(social.NotifyLeaderboardDismissed)
}

func (l *LoggingListener) OnAchievementsViewDismissed() {
	l.logger.Info("achievements view dismissed")
	l.forward(social.NotifyAchievementsDismissed)
}

var _ social.Listener = (*LoggingListener)(nil)
