package repository

import (
	"context"

	"novel-platform-api/internal/domain/entity"
)

// NotificationRepository 通知仓储接口
// 所有读写都限定在接收者范围内，非本人的通知视为不存在
type NotificationRepository interface {
	// Create 创建通知
	Create(ctx context.Context, n *entity.Notification) error

	// CreateBatch 批量创建通知
	CreateBatch(ctx context.Context, ns []*entity.Notification) error

	// ListByRecipient 按时间倒序分页
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, pagination Pagination) (*PagedResult[*entity.Notification], error)

	// CountUnread 未读数
	CountUnread(ctx context.Context, recipientID string) (int64, error)

	// SetRead 标记已读/未读，不存在返回 ErrNotFound
	SetRead(ctx context.Context, id, recipientID string, read bool) error

	// MarkAllRead 全部标记已读，返回更新条数
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	// Delete 删除通知，不存在返回 ErrNotFound
	Delete(ctx context.Context, id, recipientID string) error
}
