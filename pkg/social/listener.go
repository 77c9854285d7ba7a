package social

// Listener 游戏层注册的唯一监听者，每个结果对应一次回调，在分发 goroutine 上按顺序调用
type Listener interface {
	OnLocalPlayerAuthenticationChanged()
	OnFriendListReceived(players []PlayerRef)
	OnPlayerInfoReceived(players []PlayerRef)
	OnScoresSubmitted(success bool)
	OnScoresReceived(scores []ScoreEntry)
	OnLocalPlayerScoreReceived(score ScoreEntry)
	OnScoresAndAliasForLeaderboardReceived(scores AliasScores)
	OnLeaderboardViewDismissed()
	OnAchievementsViewDismissed()
}

// NopListener 空实现，嵌入后只需覆盖关心的回调
type NopListener struct{}

func (NopListener) OnLocalPlayerAuthenticationChanged()                {}
func (NopListener) OnFriendListReceived([]PlayerRef)                   {}
func (NopListener) OnPlayerInfoReceived([]PlayerRef)                   {}
func (NopListener) OnScoresSubmitted(bool)                             {}
func (NopListener) OnScoresReceived([]ScoreEntry)                      {}
func (NopListener) OnLocalPlayerScoreReceived(ScoreEntry)              {}
func (NopListener) OnScoresAndAliasForLeaderboardReceived(AliasScores) {}
func (NopListener) OnLeaderboardViewDismissed()                        {}
func (NopListener) OnAchievementsViewDismissed()                       {}

var _ Listener = NopListener{}

// NotificationKind 通知类型
type NotificationKind int

const (
	NotifyAuthenticationChanged NotificationKind = iota
	NotifyFriendList
	NotifyPlayerInfo
	NotifyScoresSubmitted
	NotifyScores
	NotifyLocalPlayerScore
	NotifyAliasScores
	NotifyLeaderboardDismissed
	NotifyAchievementsDismissed
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyAuthenticationChanged:
		return "authentication_changed"
	case NotifyFriendList:
		return "friend_list"
	case NotifyPlayerInfo:
		return "player_info"
	case NotifyScoresSubmitted:
		return "scores_submitted"
	case NotifyScores:
		return "scores"
	case NotifyLocalPlayerScore:
		return "local_player_score"
	case NotifyAliasScores:
		return "alias_scores"
	case NotifyLeaderboardDismissed:
		return "leaderboard_dismissed"
	case NotifyAchievementsDismissed:
		return "achievements_dismissed"
	default:
		return "unknown"
	}
}

// notification 待分发的通知
type notification struct {
	kind    NotificationKind
	players []PlayerRef
	scores  []ScoreEntry
	score   ScoreEntry
	aliases AliasScores
	success bool
}

// deliver 调用监听者对应的方法
func (n notification) deliver(l Listener) {
	switch n.kind {
	case NotifyAuthenticationChanged:
		l.OnLocalPlayerAuthenticationChanged()
	case NotifyFriendList:
		l.OnFriendListReceived(n.players)
	case NotifyPlayerInfo:
		l.OnPlayerInfoReceived(n.players)
	case NotifyScoresSubmitted:
		l.OnScoresSubmitted(n.success)
	case NotifyScores:
		l.OnScoresReceived(n.scores)
	case NotifyLocalPlayerScore:
		l.OnLocalPlayerScoreReceived(n.score)
	case NotifyAliasScores:
		l.OnScoresAndAliasForLeaderboardReceived(n.aliases)
	case NotifyLeaderboardDismissed:
		l.OnLeaderboardViewDismissed()
	case NotifyAchievementsDismissed:
		l.OnAchievementsViewDismissed()
	}
}
