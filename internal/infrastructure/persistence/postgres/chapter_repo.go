package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chapter).Error; err != nil {
		span.RecordError(err)
		if isDuplicateKey(err) {
			return fmt.Errorf("chapter %d of novel %s: %w", chapter.Number, chapter.NovelID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	if notUUID(id) {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// GetByNovelAndNumber 根据小说和章节号获取章节
func (r *ChapterRepository) GetByNovelAndNumber(ctx context.Context, novelID string, number int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByNovelAndNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "novel_id = ? AND number = ?", novelID, number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter by number: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(chapter).Select(chapterEditable).Updates(chapter)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update chapter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// chapterEditable 作者可修改的列
var chapterEditable = []string{"title", "content", "word_count", "is_premium", "price", "updated_at"}

// Delete 删除章节及其评论
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	err := inTx(ctx, r.client.db, func(tx *gorm.DB) error {
		commentIDs := tx.Model(&entity.Comment{}).Select("id").Where("chapter_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&entity.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chapter_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Chapter{}, "id = ?", id)
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
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// NextNumber 获取下一个章节号
func (r *ChapterRepository) NextNumber(ctx context.Context, novelID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.NextNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var maxNumber *int
	if err := db.Model(&entity.Chapter{}).
		Where("novel_id = ?", novelID).
		Select("MAX(number)").
		Scan(&maxNumber).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get max chapter number: %w", err)
	}

	if maxNumber == nil {
		return 1, nil
	}
	return *maxNumber + 1, nil
}

// TransitionApproval 条件更新审核状态
func (r *ChapterRepository) TransitionApproval(ctx context.Context, id string, decision repository.ApprovalDecision) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.TransitionApproval")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	err := transitionApproval(db, &entity.Chapter{}, id, decision)
	if err != nil && !errors.Is(err, repository.ErrConflict) && !errors.Is(err, repository.ErrNotFound) {
		span.RecordError(err)
		return fmt.Errorf("failed to transition chapter approval: %w", err)
	}
	return err
}

// MarkPublished 清除草稿标记
func (r *ChapterRepository) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.MarkPublished")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.Chapter{}).
		Where("id = ? AND is_draft = ?", id, true).
		Updates(map[string]interface{}{
			"is_draft":     false,
			"schedule":     nil,
			"published_at": gorm.Expr("COALESCE(published_at, ?)", at),
		})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to publish chapter: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListDueScheduled 到期的定时草稿
func (r *ChapterRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListDueScheduled")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Omit("content").
		Where("is_draft = ? AND schedule IS NOT NULL AND schedule <= ?", true, now).
		Order("schedule ASC").
		Limit(limit).
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list due chapters: %w", err)
	}
	return chapters, nil
}

// ListPending 待审核章节
func (r *ChapterRepository) ListPending(ctx context.Context, limit int) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListPending")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("approval_status = ?", entity.ApprovalPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list pending chapters: %w", err)
	}
	return chapters, nil
}

// ListByNovel 小说章节列表（不含正文）
func (r *ChapterRepository) ListByNovel(ctx context.Context, novelID string, visibleOnly bool) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByNovel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Omit("content").Where("novel_id = ?", novelID)
	if visibleOnly {
		query = query.Where("approval_status = ? AND is_draft = ?", entity.ApprovalApproved, false)
	}

	var chapters []*entity.Chapter
	if err := query.Order("number ASC").Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// SumCounted 统计计入小说的章节：非草稿且未被驳回
func (r *ChapterRepository) SumCounted(ctx context.Context, novelID string) (entity.ChapterTotals, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.SumCounted")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var row struct {
		Chapters int
		Words    int
	}
	if err := db.Model(&entity.Chapter{}).
		Select("COUNT(*) AS chapters, COALESCE(SUM(word_count), 0) AS words").
		Where("novel_id = ? AND is_draft = ? AND approval_status <> ?", novelID, false, entity.ApprovalRejected).
		Scan(&row).Error; err != nil {
		span.RecordError(err)
		return entity.ChapterTotals{}, fmt.Errorf("failed to sum chapters: %w", err)
	}
	return entity.ChapterTotals{Chapters: row.Chapters, Words: row.Words}, nil
}

// CountByNovel 按审核状态统计小说章节
func (r *ChapterRepository) CountByNovel(ctx context.Context, novelID string) (entity.ApprovalCounts, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByNovel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []struct {
		ApprovalStatus entity.ApprovalStatus
		Total          int64
	}
	if err := db.Model(&entity.Chapter{}).
		Select("approval_status, COUNT(*) AS total").
		Where("novel_id = ?", novelID).
		Group("approval_status").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return entity.ApprovalCounts{}, fmt.Errorf("failed to count chapters by status: %w", err)
	}

	var counts entity.ApprovalCounts
	for _, row := range rows {
		switch row.ApprovalStatus {
		case entity.ApprovalPending:
			counts.Pending = row.Total
		case entity.ApprovalApproved:
			counts.Approved = row.Total
		case entity.ApprovalRejected:
			counts.Rejected = row.Total
		}
	}

	if err := db.Model(&entity.Chapter{}).
		Where("novel_id = ? AND is_draft = ?", novelID, true).
		Count(&counts.Drafts).Error; err != nil {
		span.RecordError(err)
		return entity.ApprovalCounts{}, fmt.Errorf("failed to count draft chapters: %w", err)
	}
	return counts, nil
}

// CountByApproval 按审核状态计数
func (r *ChapterRepository) CountByApproval(ctx context.Context, status entity.ApprovalStatus) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByApproval")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Chapter{}).Where("approval_status = ?", status).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}

// IncrementViews 阅读数 +1
func (r *ChapterRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.IncrementViews")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Chapter{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment chapter views: %w", err)
	}
	return nil
}
