// Package stats 维护小说与作者的聚合统计
package stats

import (
	"context"
	"fmt"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// Aggregator 从明细集合重算聚合字段，重复执行结果一致
type Aggregator struct {
	novels   repository.NovelRepository
	chapters repository.ChapterRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
}

// NewAggregator 创建统计聚合器
func NewAggregator(
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
) *Aggregator {
	return &Aggregator{novels: novels, chapters: chapters, reviews: reviews, users: users}
}

// RecomputeNovelChapters 重算小说的章节数与总字数
// 计入条件：非草稿且未被驳回
func (a *Aggregator) RecomputeNovelChapters(ctx context.Context, novelID string) (entity.ChapterTotals, error) {
	totals, err := a.chapters.SumCounted(ctx, novelID)
	if err != nil {
		return entity.ChapterTotals{}, err
	}
	if err := a.novels.UpdateChapterTotals(ctx, novelID, totals); err != nil {
		return entity.ChapterTotals{}, fmt.Errorf("failed to store chapter totals: %w", err)
	}
	return totals, nil
}

// RecomputeNovelRating 根据全部书评重算评分
func (a *Aggregator) RecomputeNovelRating(ctx context.Context, novelID string) (entity.RatingSummary, error) {
	summary, err := a.reviews.Summary(ctx, novelID)
	if err != nil {
		return entity.RatingSummary{}, err
	}
	if err := a.novels.UpdateRating(ctx, novelID, summary); err != nil {
		return entity.RatingSummary{}, fmt.Errorf("failed to store rating: %w", err)
	}
	return summary, nil
}

// RefreshAuthorBadges 根据作者全部作品重算徽章
func (a *Aggregator) RefreshAuthorBadges(ctx context.Context, authorID string) (entity.StringList, error) {
	novels, err := a.novels.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	badges := entity.ComputeBadges(novels)
	if err := a.users.UpdateBadges(ctx, authorID, badges); err != nil {
		return nil, fmt.Errorf("failed to store badges: %w", err)
	}
	return badges, nil
}
