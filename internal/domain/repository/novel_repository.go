package repository

import (
	"context"

	"novel-platform-api/internal/domain/entity"
)

// NovelRepository 小说仓储接口
type NovelRepository interface {
	// Create 创建小说
	Create(ctx context.Context, novel *entity.Novel) error

	// GetByID 根据 ID 获取小说，不存在时返回 nil
	GetByID(ctx context.Context, id string) (*entity.Novel, error)

	// GetBySlug 根据 slug 获取小说，不存在时返回 nil
	GetBySlug(ctx context.Context, slug string) (*entity.Novel, error)

	// Update 更新可编辑字段，不改动审核与统计字段；不存在返回 ErrNotFound
	Update(ctx context.Context, novel *entity.Novel) error

	// Delete 删除小说及其章节、评论、书评、书签
	Delete(ctx context.Context, id string) error

	// TransitionApproval 仅当当前状态为 pending 时迁移审核状态
	// 已处理返回 ErrConflict，不存在返回 ErrNotFound
	TransitionApproval(ctx context.Context, id string, decision ApprovalDecision) error

	// ListPending 待审核小说，最早提交的在前
	ListPending(ctx context.Context, limit int) ([]*entity.Novel, error)

	// ListByAuthor 作者的全部小说
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Novel, error)

	// IncrementViews 阅读数 +1
	IncrementViews(ctx context.Context, id string) error

	// UpdateChapterTotals 写入章节聚合值
	UpdateChapterTotals(ctx context.Context, id string, totals entity.ChapterTotals) error

	// UpdateRating 写入评分聚合值
	UpdateRating(ctx context.Context, id string, rating entity.RatingSummary) error

	// CountByApproval 按审核状态计数
	CountByApproval(ctx context.Context, status entity.ApprovalStatus) (int64, error)
}
