package postgres

import (
	"context"
	"fmt"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// NotificationRepository 通知仓储实现
type NotificationRepository struct {
	client *Client
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(client *Client) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// Create 创建通知
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(n).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch 批量创建通知
func (r *NotificationRepository) CreateBatch(ctx context.Context, ns []*entity.Notification) error {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.CreateBatch")
	defer span.End()

	if len(ns) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.CreateInBatches(ns, 100).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// ListByRecipient 接收者通知分页，最新在前
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, pagination repository.Pagination) (*repository.PagedResult[*entity.Notification], error) {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.ListByRecipient")
	defer span.End()

	if notUUID(recipientID) {
		return repository.NewPagedResult([]*entity.Notification{}, 0, pagination), nil
	}

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var items []*entity.Notification
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return repository.NewPagedResult(items, total, pagination), nil
}

// CountUnread 未读数
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.CountUnread")
	defer span.End()

	if notUUID(recipientID) {
		return 0, nil
	}
	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// SetRead 标记已读/未读
func (r *NotificationRepository) SetRead(ctx context.Context, id, recipientID string, read bool) error {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.SetRead")
	defer span.End()

	if notUUID(id) || notUUID(recipientID) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", read)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkAllRead 全部标记已读
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.MarkAllRead")
	defer span.End()

	if notUUID(recipientID) {
		return 0, nil
	}
	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete 删除通知
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	ctx, span := tracer.Start(ctx, "postgres.NotificationRepository.Delete")
	defer span.End()

	if notUUID(id) || notUUID(recipientID) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Notification{}, "id = ? AND recipient_id = ?", id, recipientID)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
