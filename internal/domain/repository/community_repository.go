package repository

import (
	"context"

	"novel-platform-api/internal/domain/entity"
)

// CommentRepository 评论仓储接口
type CommentRepository interface {
	// Create 创建评论
	Create(ctx context.Context, c *entity.Comment) error

	// GetByID 根据 ID 获取评论
	GetByID(ctx context.Context, id string) (*entity.Comment, error)

	// Delete 删除评论及其回复、点赞
	Delete(ctx context.Context, id string) error

	// ListByChapter 章节评论，按创建时间正序
	ListByChapter(ctx context.Context, chapterID string) ([]*entity.Comment, error)

	// ToggleLike 切换点赞，返回切换后的状态与点赞数
	ToggleLike(ctx context.Context, commentID, userID string) (liked bool, likes int, err error)
}

// ReviewRepository 书评仓储接口
type ReviewRepository interface {
	// Create 创建书评，同一用户重复评价返回 ErrConflict
	Create(ctx context.Context, r *entity.Review) error

	// GetByID 根据 ID 获取书评
	GetByID(ctx context.Context, id string) (*entity.Review, error)

	// GetByNovelAndUser 获取用户对小说的书评
	GetByNovelAndUser(ctx context.Context, novelID, userID string) (*entity.Review, error)

	// Update 更新书评
	Update(ctx context.Context, r *entity.Review) error

	// ListByNovel 小说书评，最新在前
	ListByNovel(ctx context.Context, novelID string, pagination Pagination) (*PagedResult[*entity.Review], error)

	// Summary 根据全部书评计算评分
	Summary(ctx context.Context, novelID string) (entity.RatingSummary, error)

	// ToggleHelpful 切换“有帮助”投票
	ToggleHelpful(ctx context.Context, reviewID, userID string) (voted bool, helpful int, err error)
}

// SubscriptionRepository 订阅仓储接口
type SubscriptionRepository interface {
	// Create 创建订阅，重复返回 ErrConflict
	Create(ctx context.Context, s *entity.Subscription) error

	// Delete 取消订阅，不存在返回 ErrNotFound
	Delete(ctx context.Context, userID string, targetType entity.SubscriptionTarget, targetID string) error

	// ListByUser 用户的订阅
	ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error)

	// ListSubscriberIDs 订阅了目标的用户 ID
	ListSubscriberIDs(ctx context.Context, targetType entity.SubscriptionTarget, targetID string) ([]string, error)
}

// BookmarkRepository 书签仓储接口
type BookmarkRepository interface {
	// Upsert 添加书签，已存在时更新章节
	Upsert(ctx context.Context, b *entity.Bookmark) error

	// Delete 删除书签，不存在返回 ErrNotFound
	Delete(ctx context.Context, userID, novelID string) error

	// ListByUser 用户书签，最新在前
	ListByUser(ctx context.Context, userID string) ([]*entity.Bookmark, error)
}
