package social

import (
	"time"
)

// AuthState 本地玩家认证状态
type AuthState int32

const (
	Unauthenticated AuthState = iota
	Authenticating
	Authenticated
	Failed
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestKind 请求类型，同一类型同时最多只有一个请求在途
type RequestKind int

const (
	KindAuthenticate RequestKind = iota
	KindSubmitScore
	KindFetchScores
	KindFetchLocalScore
	KindFetchAliasScores
	KindFetchFriends
	KindFetchPlayerInfo
	KindLoadAchievements
	KindReportAchievement
	KindResetAchievements
	KindShowLeaderboard
	KindShowAchievements

	numRequestKinds
)

var requestKindNames = [numRequestKinds]string{
	KindAuthenticate:      "authenticate",
	KindSubmitScore:       "submit_score",
	KindFetchScores:       "fetch_scores",
	KindFetchLocalScore:   "fetch_local_score",
	KindFetchAliasScores:  "fetch_alias_scores",
	KindFetchFriends:      "fetch_friends",
	KindFetchPlayerInfo:   "fetch_player_info",
	KindLoadAchievements:  "load_achievements",
	KindReportAchievement: "report_achievement",
	KindResetAchievements: "reset_achievements",
	KindShowLeaderboard:   "show_leaderboard",
	KindShowAchievements:  "show_achievements",
}

func (k RequestKind) String() string {
	if k >= 0 && k < numRequestKinds {
		return requestKindNames[k]
	}
	return "unknown"
}

// PlayerRef 玩家信息
type PlayerRef struct {
	ID          string
	Alias       string
	DisplayName string
	IsFriend    bool
}

// ScoreEntry 排行榜中的一条分数
type ScoreEntry struct {
	PlayerID       string
	Category       string
	Value          int64
	Rank           int // 从 1 开始
	FormattedValue string
	Date           time.Time
}

// AliasScore 别名与分数
type AliasScore struct {
	Alias string
	Score ScoreEntry
}

// AliasScores 按排名排序的别名到分数映射
type AliasScores []AliasScore

// Lookup 按别名查找分数
func (s AliasScores) Lookup(alias string) (ScoreEntry, bool) {
	for _, as := range s {
		if as.Alias == alias {
			return as.Score, true
		}
	}
	return ScoreEntry{}, false
}

// Aliases 按排名顺序返回别名
func (s AliasScores) Aliases() []string {
	out := make([]string, len(s))
	for i, as := range s {
		out[i] = as.Alias
	}
	return out
}

// PlayerScope 排行榜玩家范围
type PlayerScope int

const (
	ScopeGlobal PlayerScope = iota
	ScopeFriendsOnly
)

// TimeScope 排行榜时间范围
type TimeScope int

const (
	TimeAllTime TimeScope = iota
	TimeToday
	TimeWeek
)

// Since 返回时间范围的起点，AllTime 返回零值
func (t TimeScope) Since(now time.Time) time.Time {
	switch t {
	case TimeToday:
		return now.Add(-24 * time.Hour)
	case TimeWeek:
		return now.Add(-7 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// LeaderboardQuery 排行榜查询条件
type LeaderboardQuery struct {
	Category    string // 为空时使用默认排行榜
	PlayerScope PlayerScope
	TimeScope   TimeScope
	Start       int // 从 1 开始的排名
	Length      int
}

// AchievementRecord 成就进度
type AchievementRecord struct {
	ID              string
	PercentComplete float64 // [0, 100]
	Completed       bool
	LastReported    time.Time
}

// clampPercent 把进度限制在 [0, 100]
func clampPercent(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
