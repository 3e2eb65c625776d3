package dto

import (
	"time"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/domain/entity"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string          `json:"username" binding:"required,min=3,max=50"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6,max=72"`
	Role     entity.UserRole `json:"role" binding:"omitempty,oneof=reader author"`
}

// LoginRequest 登录请求，login 可以是邮箱或用户名
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新请求，也可通过 Cookie 携带
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse 当前用户信息
type UserResponse struct {
	ID          string             `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	Role        entity.UserRole    `json:"role"`
	Avatar      string             `json:"avatar,omitempty"`
	Bio         string             `json:"bio,omitempty"`
	Preferences entity.Preferences `json:"preferences"`
	Badges      entity.StringList  `json:"badges"`
	IsPremium   bool               `json:"is_premium"`
	Balance     int                `json:"balance"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// ToUserResponse 将领域实体转换为 DTO
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	badges := u.Badges
	if badges == nil {
		badges = entity.StringList{}
	}
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Avatar:      u.Avatar,
		Bio:         u.Bio,
		Preferences: u.Preferences,
		Badges:      badges,
		IsPremium:   u.IsPremium,
		Balance:     u.Balance,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ToAuthResponse 登录结果转换为 DTO
func ToAuthResponse(s *account.Session) *AuthResponse {
	return &AuthResponse{
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         ToUserResponse(s.User),
	}
}
