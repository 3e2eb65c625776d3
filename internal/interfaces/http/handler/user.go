package handler

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

// UserHandler 用户资料、订阅与书签处理器
type UserHandler struct {
	accounts *account.Service
}

// NewUserHandler 创建用户处理器
func NewUserHandler(accounts *account.Service) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Profile 公开资料
// @Summary 用户公开资料
// @Description 作者附带其公开作品
// @Tags Users
// @Router /v1/users/{id} [get]
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.accounts.PublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, profile)
}

// UpdateProfile 修改简介与头像
// @Router /v1/me/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c), account.ProfilePatch{
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToUserResponse(user))
}

// UpdatePreferences 修改阅读偏好
// @Router /v1/me/preferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	prefs, err := h.accounts.UpdatePreferences(c.Request.Context(), middleware.CurrentActor(c), account.PreferencesPatch{
		Theme:      req.Theme,
		FontSize:   req.FontSize,
		LineHeight: req.LineHeight,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, prefs)
}

// History 阅读历史，最近在前
// @Router /v1/me/history [get]
func (h *UserHandler) History(c *gin.Context) {
	history, err := h.accounts.History(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, history)
}

// Subscribe 订阅作者或小说
// @Router /v1/me/subscriptions [post]
func (h *UserHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.accounts.Subscribe(c.Request.Context(), middleware.CurrentActor(c), req.TargetType, req.TargetID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, sub)
}

// Unsubscribe 取消订阅
// @Router /v1/me/subscriptions/{targetType}/{targetId} [delete]
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	target := entity.SubscriptionTarget(c.Param("targetType"))
	if err := h.accounts.Unsubscribe(c.Request.Context(), middleware.CurrentActor(c), target, c.Param("targetId")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "unsubscribed")
}

// Subscriptions 订阅列表
// @Router /v1/me/subscriptions [get]
func (h *UserHandler) Subscriptions(c *gin.Context) {
	subs, err := h.accounts.Subscriptions(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, subs)
}

// Bookmarks 书签列表
// @Router /v1/me/bookmarks [get]
func (h *UserHandler) Bookmarks(c *gin.Context) {
	marks, err := h.accounts.Bookmarks(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, marks)
}

// AddBookmark 添加或移动书签
// @Router /v1/me/bookmarks [post]
func (h *UserHandler) AddBookmark(c *gin.Context) {
	var req dto.BookmarkRequest
	if !bindJSON(c, &req) {
		return
	}
	mark, err := h.accounts.AddBookmark(c.Request.Context(), middleware.CurrentActor(c), req.NovelID, req.ChapterID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, mark)
}

// RemoveBookmark 删除书签
// @Router /v1/me/bookmarks/{novelId} [delete]
func (h *UserHandler) RemoveBookmark(c *gin.Context) {
	if err := h.accounts.RemoveBookmark(c.Request.Context(), middleware.CurrentActor(c), c.Param("novelId")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "bookmark removed")
}
