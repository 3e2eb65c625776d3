package repository

import (
	"context"
	"time"

	"novel-platform-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节，不存在时返回 nil
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// GetByNovelAndNumber 根据小说和章节号获取章节
	GetByNovelAndNumber(ctx context.Context, novelID string, number int) (*entity.Chapter, error)

	// Update 更新标题、正文、付费设置；不存在返回 ErrNotFound
	Update(ctx context.Context, chapter *entity.Chapter) error

	// Delete 删除章节及其评论
	Delete(ctx context.Context, id string) error

	// NextNumber 下一个章节号（现有最大值 + 1）
	NextNumber(ctx context.Context, novelID string) (int, error)

	// TransitionApproval 仅当当前状态为 pending 时迁移审核状态
	TransitionApproval(ctx context.Context, id string, decision ApprovalDecision) error

	// MarkPublished 清除草稿标记，published_at 未设置时写入 at
	// 章节已不是草稿时返回 false
	MarkPublished(ctx context.Context, id string, at time.Time) (bool, error)

	// ListDueScheduled 到期的定时草稿
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.Chapter, error)

	// ListPending 待审核章节，最早提交的在前
	ListPending(ctx context.Context, limit int) ([]*entity.Chapter, error)

	// ListByNovel 小说的章节（不含正文），visibleOnly 时只返回已通过且非草稿
	ListByNovel(ctx context.Context, novelID string, visibleOnly bool) ([]*entity.Chapter, error)

	// SumCounted 统计计入小说的章节数与字数
	SumCounted(ctx context.Context, novelID string) (entity.ChapterTotals, error)

	// CountByNovel 按审核状态统计小说的章节
	CountByNovel(ctx context.Context, novelID string) (entity.ApprovalCounts, error)

	// CountByApproval 按审核状态计数
	CountByApproval(ctx context.Context, status entity.ApprovalStatus) (int64, error)

	// IncrementViews 阅读数 +1
	IncrementViews(ctx context.Context, id string) error
}
