package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	client *Client
}

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(user).Error; err != nil {
		span.RecordError(err)
		if isDuplicateKey(err) {
			return fmt.Errorf("user %s: %w", user.Email, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	if notUUID(id) {
		return nil, nil
	}
	return r.first(ctx, span.RecordError, "id = ?", id)
}

// GetByEmail 根据邮箱获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByEmail")
	defer span.End()

	return r.first(ctx, span.RecordError, "email = ?", entity.NormalizeEmail(email))
}

// GetByUsername 根据用户名获取用户
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByUsername")
	defer span.End()

	return r.first(ctx, span.RecordError, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, record func(error, ...trace.EventOption), query string, args ...interface{}) (*entity.User, error) {
	db := getDB(ctx, r.client.db)
	var user entity.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		record(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListByRole 获取指定角色的用户
func (r *UserRepository) ListByRole(ctx context.Context, role entity.UserRole) ([]*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ListByRole")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var users []*entity.User
	if err := db.Where("role = ?", role).Order("created_at ASC").Find(&users).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}

// ListByIDs 批量获取用户
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ListByIDs")
	defer span.End()

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if !notUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*entity.User{}, nil
	}

	db := getDB(ctx, r.client.db)
	var users []*entity.User
	if err := db.Where("id IN ?", valid).Find(&users).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list users by ids: %w", err)
	}
	return users, nil
}

// UpdatePreferences 更新阅读偏好
func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, prefs entity.Preferences) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdatePreferences")
	defer span.End()

	return r.updateField(ctx, span.RecordError, id, "Preferences", &entity.User{Preferences: prefs})
}

// UpdateReadingHistory 覆盖阅读历史
func (r *UserRepository) UpdateReadingHistory(ctx context.Context, id string, history []entity.ReadingEntry) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdateReadingHistory")
	defer span.End()

	return r.updateField(ctx, span.RecordError, id, "ReadingHistory", &entity.User{ReadingHistory: history})
}

// UpdateBadges 覆盖徽章
func (r *UserRepository) UpdateBadges(ctx context.Context, id string, badges entity.StringList) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdateBadges")
	defer span.End()

	return r.updateField(ctx, span.RecordError, id, "Badges", &entity.User{Badges: badges})
}

// UpdateProfile 更新简介与头像
func (r *UserRepository) UpdateProfile(ctx context.Context, id, bio, avatar string) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdateProfile")
	defer span.End()

	if notUUID(id) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.User{ID: id}).Select("Bio", "Avatar").Updates(&entity.User{Bio: bio, Avatar: avatar})
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// updateField 以结构体方式更新单个字段，JSON 序列化器只在结构体更新时生效
func (r *UserRepository) updateField(ctx context.Context, record func(error, ...trace.EventOption), id, field string, value *entity.User) error {
	if notUUID(id) {
		return repository.ErrNotFound
	}
	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.User{ID: id}).Select(field).Updates(value)
	if res.Error != nil {
		record(res.Error)
		return fmt.Errorf("failed to update user %s: %w", field, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateLastLogin 更新最后登录时间
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdateLastLogin")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.User{}).Where("id = ?", id).UpdateColumn("last_login_at", time.Now()).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Count 用户总数
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Count")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
