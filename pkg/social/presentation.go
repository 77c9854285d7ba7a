package social

// PresentationBridge 展示平台原生排行榜与成就界面。
// Show 方法立即返回，界面关闭时调用 onDismiss 一次。
type PresentationBridge interface {
	ShowLeaderboard(category string, onDismiss func()) error
	ShowAchievements(onDismiss func()) error
}

// nopPresenter 未注入展示层时使用，立即回调关闭
type nopPresenter struct{}

func (nopPresenter) ShowLeaderboard(_ string, onDismiss func()) error {
	onDismiss()
	return nil
}

func (nopPresenter) ShowAchievements(onDismiss func()) error {
	onDismiss()
	return nil
}
