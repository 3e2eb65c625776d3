package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// CommentRepository 评论仓储实现
type CommentRepository struct {
	client *Client
}

// NewCommentRepository 创建评论仓储
func NewCommentRepository(client *Client) *CommentRepository {
	return &CommentRepository{client: client}
}

// Create 创建评论
func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(c).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取评论
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.GetByID")
	defer span.End()

	if notUUID(id) {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var c entity.Comment
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// Delete 删除评论及其回复
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.Delete")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	err := inTx(ctx, r.client.db, func(tx *gorm.DB) error {
		replyIDs := tx.Model(&entity.Comment{}).Select("id").Where("parent_id = ?", id)
		if err := tx.Where("comment_id = ? OR comment_id IN (?)", id, replyIDs).Delete(&entity.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Comment{}, "id = ?", id)
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
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ListByChapter 章节评论
func (r *CommentRepository) ListByChapter(ctx context.Context, chapterID string) ([]*entity.Comment, error) {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.ListByChapter")
	defer span.End()

	if notUUID(chapterID) {
		return []*entity.Comment{}, nil
	}
	db := getDB(ctx, r.client.db)
	var comments []*entity.Comment
	if err := db.Where("chapter_id = ?", chapterID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ToggleLike 切换点赞
func (r *CommentRepository) ToggleLike(ctx context.Context, commentID, userID string) (bool, int, error) {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.ToggleLike")
	defer span.End()

	var liked bool
	var likes int
	err := inTx(ctx, r.client.db, func(tx *gorm.DB) error {
		var err error
		liked, likes, err = toggleVote(tx, &entity.Comment{}, commentID, "likes",
			&entity.CommentLike{CommentID: commentID, UserID: userID},
			"comment_id = ? AND user_id = ?", commentID, userID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return false, 0, fmt.Errorf("failed to toggle comment like: %w", err)
	}
	return liked, likes, nil
}

// toggleVote 删除已有投票或插入新投票，并同步计数列
func toggleVote(tx *gorm.DB, target interface{}, targetID, counter string, vote interface{}, cond string, args ...interface{}) (bool, int, error) {
	res := tx.Where(cond, args...).Delete(vote)
	if res.Error != nil {
		return false, 0, res.Error
	}

	on := res.RowsAffected == 0
	delta := -1
	if on {
		delta = 1
		if err := tx.Create(vote).Error; err != nil {
			return false, 0, err
		}
	}

	if err := tx.Model(target).Where("id = ?", targetID).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error; err != nil {
		return false, 0, err
	}

	var count int
	if err := tx.Model(target).Select(counter).Where("id = ?", targetID).Scan(&count).Error; err != nil {
		return false, 0, err
	}
	return on, count, nil
}
