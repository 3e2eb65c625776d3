// Package notify 负责通知的持久化、实时推送与订阅者扇出
package notify

import (
	"context"
	"errors"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/realtime"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/metrics"
)

// Notice 待发送的通知
type Notice struct {
	RecipientID string
	Type        entity.NotificationType
	Title       string
	Message     string
	NovelID     string
	ChapterID   string
	UserID      string
	ActionURL   string
	Metadata    *entity.NotificationMetadata
}

func (n Notice) entity() *entity.Notification {
	return &entity.Notification{
		RecipientID:      n.RecipientID,
		Type:             n.Type,
		Title:            n.Title,
		Message:          n.Message,
		RelatedNovelID:   optional(n.NovelID),
		RelatedChapterID: optional(n.ChapterID),
		RelatedUserID:    optional(n.UserID),
		ActionURL:        n.ActionURL,
		Metadata:         n.Metadata,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Dispatcher 先持久化再尽力推送
type Dispatcher struct {
	repo      repository.NotificationRepository
	publisher realtime.Publisher
}

// NewDispatcher 创建通知分发器
func NewDispatcher(repo repository.NotificationRepository, publisher realtime.Publisher) *Dispatcher {
	return &Dispatcher{repo: repo, publisher: publisher}
}

// Notify 保存通知并推送到 user_<recipient>，推送失败只记录日志
func (d *Dispatcher) Notify(ctx context.Context, notice Notice) (*entity.Notification, error) {
	n := notice.entity()
	if err := n.Validate(); err != nil {
		return nil, apperrors.Validation("invalid notification").WithError(err)
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save notification")
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	d.push(ctx, n)
	return n, nil
}

// NotifyMany 批量保存并逐个推送
func (d *Dispatcher) NotifyMany(ctx context.Context, notices []Notice) ([]*entity.Notification, error) {
	if len(notices) == 0 {
		return nil, nil
	}
	items := make([]*entity.Notification, 0, len(notices))
	for _, notice := range notices {
		n := notice.entity()
		if err := n.Validate(); err != nil {
			return nil, apperrors.Validation("invalid notification").WithError(err)
		}
		items = append(items, n)
	}
	if err := d.repo.CreateBatch(ctx, items); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save notifications")
	}
	for _, n := range items {
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		d.push(ctx, n)
	}
	return items, nil
}

// Broadcast 向 novel_<id> 广播事件，不落库
func (d *Dispatcher) Broadcast(ctx context.Context, novelID, event string, payload interface{}) {
	if err := d.publisher.Publish(ctx, realtime.NovelChannel(novelID), event, payload); err != nil {
		logger.Warn(ctx, "realtime broadcast failed",
			"novel_id", novelID,
			"event", event,
			"error", err.Error(),
		)
	}
}

func (d *Dispatcher) push(ctx context.Context, n *entity.Notification) {
	if err := d.publisher.Publish(ctx, realtime.UserChannel(n.RecipientID), realtime.EventNotification, n); err != nil {
		logger.Warn(ctx, "realtime notification push failed",
			"notification_id", n.ID,
			"recipient_id", n.RecipientID,
			"error", err.Error(),
		)
	}
}

// Inbox 通知读状态操作，全部限定在接收者范围内
type Inbox struct {
	repo repository.NotificationRepository
}

// NewInbox 创建收件箱服务
func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

// InboxPage 通知分页及未读数
type InboxPage struct {
	*repository.PagedResult[*entity.Notification]
	Unread int64 `json:"unread_count"`
}

// List 最新在前
func (i *Inbox) List(ctx context.Context, userID string, unreadOnly bool, pagination repository.Pagination) (*InboxPage, error) {
	page, err := i.repo.ListByRecipient(ctx, userID, unreadOnly, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list notifications")
	}
	unread, err := i.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count notifications")
	}
	return &InboxPage{PagedResult: page, Unread: unread}, nil
}

// UnreadCount 未读数
func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := i.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count notifications")
	}
	return n, nil
}

// MarkRead 标记已读
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) error {
	return notFound(i.repo.SetRead(ctx, id, userID, true))
}

// MarkUnread 标记未读
func (i *Inbox) MarkUnread(ctx context.Context, userID, id string) error {
	return notFound(i.repo.SetRead(ctx, id, userID, false))
}

// MarkAllRead 全部已读，返回更新条数
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := i.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to mark notifications")
	}
	return n, nil
}

// Delete 删除通知
func (i *Inbox) Delete(ctx context.Context, userID, id string) error {
	return notFound(i.repo.Delete(ctx, id, userID))
}

func notFound(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.ErrNotificationNotFound
	default:
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update notification")
	}
}
