package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// ReviewRepository 书评仓储实现
type ReviewRepository struct {
	client *Client
}

// NewReviewRepository 创建书评仓储
func NewReviewRepository(client *Client) *ReviewRepository {
	return &ReviewRepository{client: client}
}

// Create 创建书评，唯一索引保证每个用户每部小说一条
func (r *ReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(review).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("review of novel %s by %s: %w", review.NovelID, review.UserID, repository.ErrConflict)
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取书评
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.GetByID")
	defer span.End()

	if notUUID(id) {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var review entity.Review
	if err := db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// GetByNovelAndUser 获取用户对小说的书评
func (r *ReviewRepository) GetByNovelAndUser(ctx context.Context, novelID, userID string) (*entity.Review, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.GetByNovelAndUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var review entity.Review
	if err := db.First(&review, "novel_id = ? AND user_id = ?", novelID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get review by user: %w", err)
	}
	return &review, nil
}

// Update 更新书评
func (r *ReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(review).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

// ListByNovel 小说书评分页
func (r *ReviewRepository) ListByNovel(ctx context.Context, novelID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Review], error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.ListByNovel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Review{}).Where("novel_id = ?", novelID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []*entity.Review
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&reviews).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return repository.NewPagedResult(reviews, total, pagination), nil
}

// Summary 根据全部书评计算平均分与数量
func (r *ReviewRepository) Summary(ctx context.Context, novelID string) (entity.RatingSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.Summary")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var row struct {
		Average float64
		Count   int
	}
	if err := db.Model(&entity.Review{}).
		Select("CAST(COALESCE(AVG(rating), 0) AS DOUBLE PRECISION) AS average, COUNT(*) AS count").
		Where("novel_id = ?", novelID).
		Scan(&row).Error; err != nil {
		span.RecordError(err)
		return entity.RatingSummary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return entity.RatingSummary{Average: row.Average, Count: row.Count}, nil
}

// ToggleHelpful 切换“有帮助”投票
func (r *ReviewRepository) ToggleHelpful(ctx context.Context, reviewID, userID string) (bool, int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.ToggleHelpful")
	defer span.End()

	var voted bool
	var helpful int
	err := inTx(ctx, r.client.db, func(tx *gorm.DB) error {
		var err error
		voted, helpful, err = toggleVote(tx, &entity.Review{}, reviewID, "helpful",
			&entity.ReviewVote{ReviewID: reviewID, UserID: userID},
			"review_id = ? AND user_id = ?", reviewID, userID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return false, 0, fmt.Errorf("failed to toggle review vote: %w", err)
	}
	return voted, helpful, nil
}
