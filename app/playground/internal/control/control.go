// Package control 通过 HTTP 暴露 Helper 的状态与操作。
// 操作只负责受理，结果仍经由 Listener 送达，这里统一返回 202。
package control

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/web"
	"github.com/lk2023060901/xdooria-social/pkg/web/middleware"
	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

// Handler HTTP 处理器
type Handler struct {
	helper *social.Helper
	logger logger.Logger
}

// New 创建处理器
func New(h *social.Helper, l logger.Logger) *Handler {
	return &Handler{helper: h, logger: l.Named("control")}
}

// Register 注册路由，auth 非空时保护 /v1 下的全部接口
func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	if auth != nil {
		v1.Use(auth)
	}
	v1.GET("/session", h.session)
	v1.POST("/session/authenticate", h.authenticate)
	v1.POST("/session/lost", h.authenticationLost)

	v1.GET("/achievements", h.achievements)
	v1.GET("/achievements/:id", h.achievement)
	v1.POST("/achievements/load", h.gated(h.helper.LoadAchievements))
	v1.POST("/achievements/reset", h.gated(h.helper.ResetAchievements))
	v1.POST("/achievements/progress", h.reportAchievement)

	v1.POST("/scores", h.submitScore)
	v1.POST("/scores/local", h.gated(h.helper.GetLocalPlayerHighScore))
	v1.POST("/leaderboard", h.fetchLeaderboard)
	v1.POST("/friends", h.gated(h.helper.GetFriends))
	v1.POST("/players", h.fetchPlayers)
}

type playerView struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	DisplayName string `json:"display_name"`
}

type errorView struct {
	Kind    string    `json:"kind"`
	Op      string    `json:"op"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type sessionView struct {
	State       string      `json:"state"`
	Available   bool        `json:"available"`
	LocalPlayer *playerView `json:"local_player,omitempty"`
	LastError   *errorView  `json:"last_error,omitempty"`
}

type achievementView struct {
	ID           string     `json:"id"`
	Percent      float64    `json:"percent"`
	Completed    bool       `json:"completed"`
	LastReported *time.Time `json:"last_reported,omitempty"`
}

func newAchievementView(r social.AchievementRecord) achievementView {
	v := achievementView{ID: r.ID, Percent: r.PercentComplete, Completed: r.Completed}
	if !r.LastReported.IsZero() {
		at := r.LastReported
		v.LastReported = &at
	}
	return v
}

func (h *Handler) healthz(c *gin.Context) {
	web.Success(c, gin.H{"state": h.helper.State().String()})
}

func (h *Handler) session(c *gin.Context) {
	view := sessionView{
		State:     h.helper.State().String(),
		Available: h.helper.IsAvailable(),
	}
	if p, ok := h.helper.LocalPlayer(); ok {
		view.LocalPlayer = &playerView{ID: p.ID, Alias: p.Alias, DisplayName: p.DisplayName}
	}
	if rec, ok := h.helper.LastError(); ok {
		view.LastError = &errorView{
			Kind:    rec.Kind.String(),
			Op:      rec.Op.String(),
			Message: rec.Error(),
			At:      rec.At,
		}
	}
	web.Success(c, view)
}

func (h *Handler) authenticate(c *gin.Context) {
	middleware.RequestLogger(c, h.logger).Info("authenticate requested")
	h.helper.Authenticate()
	web.Accepted(c, nil)
}

func (h *Handler) authenticationLost(c *gin.Context) {
	middleware.RequestLogger(c, h.logger).Info("authentication lost requested")
	h.helper.HandleAuthenticationLost()
	web.Accepted(c, nil)
}

func (h *Handler) achievements(c *gin.Context) {
	snapshot := h.helper.AchievementSnapshot()
	out := make([]achievementView, 0, len(snapshot))
	for _, r := range snapshot {
		out = append(out, newAchievementView(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	web.Success(c, out)
}

// achievement 未知 ID 返回零进度记录，与 GetAchievement 一致
func (h *Handler) achievement(c *gin.Context) {
	web.Success(c, newAchievementView(h.helper.GetAchievement(c.Param("id"))))
}

// gated 未认证时 Helper 会静默丢弃请求，这里提前返回 409 让调用方知道
func (h *Handler) gated(op func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.available(c) {
			return
		}
		op()
		web.Accepted(c, nil)
	}
}

func (h *Handler) available(c *gin.Context) bool {
	if h.helper.IsAvailable() {
		return true
	}
	web.Error(c, weberrors.CodeUnavailable, "local player is not authenticated")
	return false
}

type reportRequest struct {
	ID      string  `json:"id" binding:"required"`
	Percent float64 `json:"percent" binding:"gte=0,lte=100"`
}

func (h *Handler) reportAchievement(c *gin.Context) {
	var req reportRequest
	if !web.BindAndValidate(c, &req) || !h.available(c) {
		return
	}
	h.helper.ReportAchievement(req.ID, req.Percent)
	web.Accepted(c, newAchievementView(h.helper.GetAchievement(req.ID)))
}

type scoreRequest struct {
	Score    int64  `json:"score" binding:"gte=0"`
	Category string `json:"category"`
}

func (h *Handler) submitScore(c *gin.Context) {
	var req scoreRequest
	if !web.BindAndValidate(c, &req) || !h.available(c) {
		return
	}
	middleware.RequestLogger(c, h.logger).Info("score submitted", "score", req.Score, "category", req.Category)
	h.helper.SubmitScore(req.Score, req.Category)
	web.Accepted(c, nil)
}

type leaderboardRequest struct {
	Category string `json:"category"`
	// FriendsOnly 只看好友
	FriendsOnly bool `json:"friends_only"`
	// Time all/today/week
	Time   string `json:"time" binding:"omitempty,oneof=all today week"`
	Start  int    `json:"start" binding:"gte=0"`
	Length int    `json:"length" binding:"gte=0,lte=100"`
	// Alias 为 false 时只取分数，不拼接别名
	Alias *bool `json:"alias"`
}

func (r leaderboardRequest) query() social.LeaderboardQuery {
	q := social.LeaderboardQuery{Category: r.Category, Start: r.Start, Length: r.Length}
	if r.FriendsOnly {
		q.PlayerScope = social.ScopeFriendsOnly
	}
	switch r.Time {
	case "today":
		q.TimeScope = social.TimeToday
	case "week":
		q.TimeScope = social.TimeWeek
	}
	return q
}

func (h *Handler) fetchLeaderboard(c *gin.Context) {
	var req leaderboardRequest
	if c.Request.ContentLength != 0 && !web.BindAndValidate(c, &req) {
		return
	}
	if !h.available(c) {
		return
	}
	if req.Alias != nil && !*req.Alias {
		h.helper.GetScores(req.query())
	} else {
		h.helper.GetScoresAndAliasForLeaderboard(req.query())
	}
	web.Accepted(c, nil)
}

type playersRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100,dive,required"`
}

func (h *Handler) fetchPlayers(c *gin.Context) {
	var req playersRequest
	if !web.BindAndValidate(c, &req) || !h.available(c) {
		return
	}
	h.helper.GetPlayerInfo(req.IDs)
	web.Accepted(c, nil)
}
