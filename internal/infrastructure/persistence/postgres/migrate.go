package postgres

import (
	"context"
	"fmt"

	"novel-platform-api/internal/domain/entity"
)

// models 参与自动迁移的实体
func models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Novel{},
		&entity.Chapter{},
		&entity.Comment{},
		&entity.CommentLike{},
		&entity.Review{},
		&entity.ReviewVote{},
		&entity.Notification{},
		&entity.Subscription{},
		&entity.Bookmark{},
	}
}

// Migrate 根据实体定义同步表结构
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	if err := c.db.WithContext(ctx).AutoMigrate(models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
