package social

import (
	"context"

	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// PlatformService 社交游戏平台的异步接口。
// 每个方法立即返回 Future，结果由平台在任意 goroutine 上完成。
// 实现方不需要处理认证门控与同类请求串行化。
type PlatformService interface {
	// Authenticate 认证本地玩家，成功返回本地玩家信息
	Authenticate(ctx context.Context) *conc.Future[PlayerRef]

	// FriendIDs 获取本地玩家的好友 ID 列表
	FriendIDs(ctx context.Context) *conc.Future[[]string]

	// LoadPlayers 批量解析玩家 ID，无法解析的 ID 不出现在结果中
	LoadPlayers(ctx context.Context, ids []string) *conc.Future[[]PlayerRef]

	// SubmitScore 提交分数，category 不会为空
	SubmitScore(ctx context.Context, category string, value int64) *conc.Future[struct{}]

	// LoadScores 获取排行榜中的一页分数，按排名升序
	LoadScores(ctx context.Context, query LeaderboardQuery) *conc.Future[[]ScoreEntry]

	// LoadLocalPlayerScore 获取本地玩家在 category 上的最好成绩
	LoadLocalPlayerScore(ctx context.Context, category string) *conc.Future[ScoreEntry]

	// LoadAchievements 获取本地玩家的全部成就进度
	LoadAchievements(ctx context.Context) *conc.Future[[]AchievementRecord]

	// ReportAchievement 上报成就进度，平台保留最大值
	ReportAchievement(ctx context.Context, id string, percent float64) *conc.Future[struct{}]

	// ResetAchievements 清空本地玩家的全部成就进度
	ResetAchievements(ctx context.Context) *conc.Future[struct{}]
}
