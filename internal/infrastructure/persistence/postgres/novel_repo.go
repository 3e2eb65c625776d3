// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// NovelRepository 小说仓储实现
type NovelRepository struct {
	client *Client
}

// NewNovelRepository 创建小说仓储
func NewNovelRepository(client *Client) *NovelRepository {
	return &NovelRepository{client: client}
}

// notUUID 非法 ID 直接按不存在处理，避免 uuid 列的类型错误
func notUUID(id string) bool {
	return uuid.Validate(id) != nil
}

// Create 创建小说
func (r *NovelRepository) Create(ctx context.Context, novel *entity.Novel) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(novel).Error; err != nil {
		span.RecordError(err)
		if isDuplicateKey(err) {
			return fmt.Errorf("novel slug %q: %w", novel.Slug, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create novel: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取小说
func (r *NovelRepository) GetByID(ctx context.Context, id string) (*entity.Novel, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.GetByID")
	defer span.End()

	if notUUID(id) {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var novel entity.Novel
	if err := db.First(&novel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get novel: %w", err)
	}
	return &novel, nil
}

// GetBySlug 根据 slug 获取小说
func (r *NovelRepository) GetBySlug(ctx context.Context, slug string) (*entity.Novel, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.GetBySlug")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var novel entity.Novel
	if err := db.First(&novel, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get novel by slug: %w", err)
	}
	return &novel, nil
}

// Update 更新小说
func (r *NovelRepository) Update(ctx context.Context, novel *entity.Novel) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(novel).Select(novelEditable).Updates(novel)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update novel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// novelEditable 作者可修改的列，审核与统计列由专用方法维护
var novelEditable = []string{"title", "synopsis", "cover", "genres", "tags", "status", "is_mature", "is_premium", "updated_at"}

// Delete 删除小说及关联数据
func (r *NovelRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.Delete")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	err := inTx(ctx, r.client.db, func(tx *gorm.DB) error {
		chapterIDs := tx.Model(&entity.Chapter{}).Select("id").Where("novel_id = ?", id)
		commentIDs := tx.Model(&entity.Comment{}).Select("id").Where("chapter_id IN (?)", chapterIDs)
		reviewIDs := tx.Model(&entity.Review{}).Select("id").Where("novel_id = ?", id)

		steps := []func() *gorm.DB{
			func() *gorm.DB { return tx.Where("comment_id IN (?)", commentIDs).Delete(&entity.CommentLike{}) },
			func() *gorm.DB { return tx.Where("chapter_id IN (?)", chapterIDs).Delete(&entity.Comment{}) },
			func() *gorm.DB { return tx.Where("novel_id = ?", id).Delete(&entity.Chapter{}) },
			func() *gorm.DB { return tx.Where("review_id IN (?)", reviewIDs).Delete(&entity.ReviewVote{}) },
			func() *gorm.DB { return tx.Where("novel_id = ?", id).Delete(&entity.Review{}) },
			func() *gorm.DB { return tx.Where("novel_id = ?", id).Delete(&entity.Bookmark{}) },
			func() *gorm.DB {
				return tx.Where("target_type = ? AND target_id = ?", entity.SubscribeNovel, id).Delete(&entity.Subscription{})
			},
		}
		for _, step := range steps {
			if err := step().Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&entity.Novel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		span.RecordError(err)
		return fmt.Errorf("failed to delete novel: %w", err)
	}
	return nil
}

// TransitionApproval 条件更新审核状态
func (r *NovelRepository) TransitionApproval(ctx context.Context, id string, decision repository.ApprovalDecision) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.TransitionApproval")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	err := transitionApproval(db, &entity.Novel{}, id, decision)
	if err != nil && !errors.Is(err, repository.ErrConflict) && !errors.Is(err, repository.ErrNotFound) {
		span.RecordError(err)
		return fmt.Errorf("failed to transition novel approval: %w", err)
	}
	return err
}

// transitionApproval 单条 UPDATE ... WHERE approval_status = 'pending'
// 未命中时区分不存在与已处理
func transitionApproval(db *gorm.DB, model interface{}, id string, d repository.ApprovalDecision) error {
	reason := ""
	if d.To == entity.ApprovalRejected {
		reason = d.Reason
	}
	res := db.Model(model).
		Where("id = ? AND approval_status = ?", id, entity.ApprovalPending).
		Updates(map[string]interface{}{
			"approval_status":  d.To,
			"approved_by":      d.ModeratorID,
			"approved_at":      d.At,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// ListPending 待审核小说
func (r *NovelRepository) ListPending(ctx context.Context, limit int) ([]*entity.Novel, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.ListPending")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var novels []*entity.Novel
	if err := db.Where("approval_status = ?", entity.ApprovalPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&novels).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list pending novels: %w", err)
	}
	return novels, nil
}

// ListByAuthor 作者的全部小说
func (r *NovelRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Novel, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.ListByAuthor")
	defer span.End()

	if notUUID(authorID) {
		return []*entity.Novel{}, nil
	}
	db := getDB(ctx, r.client.db)
	var novels []*entity.Novel
	if err := db.Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&novels).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list novels by author: %w", err)
	}
	return novels, nil
}

// IncrementViews 阅读数 +1
func (r *NovelRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.IncrementViews")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Novel{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment novel views: %w", err)
	}
	return nil
}

// UpdateChapterTotals 写入章节聚合值
func (r *NovelRepository) UpdateChapterTotals(ctx context.Context, id string, totals entity.ChapterTotals) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.UpdateChapterTotals")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Novel{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"total_chapters": totals.Chapters,
		"total_words":    totals.Words,
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update novel chapter totals: %w", err)
	}
	return nil
}

// UpdateRating 写入评分聚合值
func (r *NovelRepository) UpdateRating(ctx context.Context, id string, rating entity.RatingSummary) error {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.UpdateRating")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Novel{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"rating_average": rating.Average,
		"rating_count":   rating.Count,
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update novel rating: %w", err)
	}
	return nil
}

// CountByApproval 按审核状态计数
func (r *NovelRepository) CountByApproval(ctx context.Context, status entity.ApprovalStatus) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.CountByApproval")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Novel{}).Where("approval_status = ?", status).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count novels: %w", err)
	}
	return count, nil
}
