package repository

import (
	"context"

	"novel-platform-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户，用户名或邮箱重复时返回 ErrConflict
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// GetByUsername 根据用户名获取用户
	GetByUsername(ctx context.Context, username string) (*entity.User, error)

	// ListByRole 获取指定角色的用户
	ListByRole(ctx context.Context, role entity.UserRole) ([]*entity.User, error)

	// ListByIDs 批量获取用户
	ListByIDs(ctx context.Context, ids []string) ([]*entity.User, error)

	// UpdatePreferences 更新阅读偏好
	UpdatePreferences(ctx context.Context, id string, prefs entity.Preferences) error

	// UpdateReadingHistory 覆盖阅读历史
	UpdateReadingHistory(ctx context.Context, id string, history []entity.ReadingEntry) error

	// UpdateBadges 覆盖徽章
	UpdateBadges(ctx context.Context, id string, badges entity.StringList) error

	// UpdateProfile 更新简介与头像
	UpdateProfile(ctx context.Context, id, bio, avatar string) error

	// UpdateLastLogin 更新最后登录时间
	UpdateLastLogin(ctx context.Context, id string) error

	// Count 用户总数
	Count(ctx context.Context) (int64, error)
}
