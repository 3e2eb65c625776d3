package handler

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

// NotificationHandler 通知收件箱处理器
type NotificationHandler struct {
	inbox *notify.Inbox
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(inbox *notify.Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread_count"`
}

// MarkAllResponse 批量已读结果
type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}

// List 通知列表
// @Summary 通知列表
// @Description 最新在前，unread_only=true 时只返回未读
// @Tags Notifications
// @Router /v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	page, err := h.inbox.List(c.Request.Context(), actor.UserID, dto.BindBool(c, "unread_only"), dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, page)
}

// UnreadCount 未读数
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.inbox.UnreadCount(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, UnreadCountResponse{Unread: n})
}

// MarkAllRead 全部已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.inbox.MarkAllRead(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, MarkAllResponse{Updated: n})
}

// MarkRead 标记已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "notification marked as read")
}

// MarkUnread 标记未读
func (h *NotificationHandler) MarkUnread(c *gin.Context) {
	if err := h.inbox.MarkUnread(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "notification marked as unread")
}

// Delete 删除通知
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.inbox.Delete(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "notification deleted")
}
