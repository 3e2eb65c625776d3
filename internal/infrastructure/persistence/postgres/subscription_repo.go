package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// SubscriptionRepository 订阅仓储实现
type SubscriptionRepository struct {
	client *Client
}

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(client *Client) *SubscriptionRepository {
	return &SubscriptionRepository{client: client}
}

// Create 创建订阅
func (r *SubscriptionRepository) Create(ctx context.Context, s *entity.Subscription) error {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(s).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("subscription %s/%s: %w", s.TargetType, s.TargetID, repository.ErrConflict)
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// Delete 取消订阅
func (r *SubscriptionRepository) Delete(ctx context.Context, userID string, targetType entity.SubscriptionTarget, targetID string) error {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionRepository.Delete")
	defer span.End()

	if notUUID(targetID) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Subscription{}, "user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByUser 用户的订阅
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var subs []*entity.Subscription
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// ListSubscriberIDs 订阅了目标的用户
func (r *SubscriptionRepository) ListSubscriberIDs(ctx context.Context, targetType entity.SubscriptionTarget, targetID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionRepository.ListSubscriberIDs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ids []string
	if err := db.Model(&entity.Subscription{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Pluck("user_id", &ids).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return ids, nil
}

// BookmarkRepository 书签仓储实现
type BookmarkRepository struct {
	client *Client
}

// NewBookmarkRepository 创建书签仓储
func NewBookmarkRepository(client *Client) *BookmarkRepository {
	return &BookmarkRepository{client: client}
}

// Upsert 添加或更新书签
func (r *BookmarkRepository) Upsert(ctx context.Context, b *entity.Bookmark) error {
	ctx, span := tracer.Start(ctx, "postgres.BookmarkRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "novel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chapter_id"}),
	}).Create(b).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert bookmark: %w", err)
	}
	return nil
}

// Delete 删除书签
func (r *BookmarkRepository) Delete(ctx context.Context, userID, novelID string) error {
	ctx, span := tracer.Start(ctx, "postgres.BookmarkRepository.Delete")
	defer span.End()

	if notUUID(novelID) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Bookmark{}, "user_id = ? AND novel_id = ?", userID, novelID)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to delete bookmark: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByUser 用户书签
func (r *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Bookmark, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookmarkRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var bookmarks []*entity.Bookmark
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&bookmarks).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return bookmarks, nil
}
