// Package account 账号、偏好、订阅与书签
package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	mailer "novel-platform-api/internal/infrastructure/mail"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/utils"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	maxBioLen      = 500
)

// TokenTTL 令牌有效期
type TokenTTL struct {
	Access  time.Duration
	Refresh time.Duration
}

// Service 账号服务
type Service struct {
	users    repository.UserRepository
	novels   repository.NovelRepository
	chapters repository.ChapterRepository
	subs     repository.SubscriptionRepository
	marks    repository.BookmarkRepository
	jwt      *utils.JWTManager
	ttl      TokenTTL
	mailer   mailer.Mailer
	composer *mailer.Composer
}

// NewService 创建账号服务
func NewService(
	users repository.UserRepository,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	subs repository.SubscriptionRepository,
	marks repository.BookmarkRepository,
	jwt *utils.JWTManager,
	ttl TokenTTL,
	m mailer.Mailer,
	composer *mailer.Composer,
) *Service {
	return &Service{
		users:    users,
		novels:   novels,
		chapters: chapters,
		subs:     subs,
		marks:    marks,
		jwt:      jwt,
		ttl:      ttl,
		mailer:   m,
		composer: composer,
	}
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     entity.UserRole
}

// Session 登录结果
type Session struct {
	User      *entity.User     `json:"user"`
	Tokens    *utils.TokenPair `json:"tokens"`
	ExpiresIn int              `json:"expires_in"`
}

// Register 注册读者或作者账号，管理员只能由 bootstrap 创建
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = entity.UserRoleReader
	}
	switch {
	case in.Role == entity.UserRoleAdmin || !in.Role.IsValid():
		return nil, apperrors.ValidationField("role", "must be reader or author")
	case !validUsername(in.Username):
		return nil, apperrors.ValidationField("username", "must be 3 to 50 characters")
	case !validEmail(in.Email):
		return nil, apperrors.ValidationField("email", "must be a valid email address")
	case len(in.Password) < minPasswordLen:
		return nil, apperrors.ValidationField("password", "must be at least 6 characters")
	}

	user := entity.NewUser(in.Username, in.Email, in.Role)
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to hash password")
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create user")
	}
	logger.Info(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))

	if s.mailer != nil && s.composer != nil {
		if err := s.mailer.Send(ctx, s.composer.Welcome(user.Email, user.Username)); err != nil {
			logger.Warn(ctx, "failed to send welcome mail", "user_id", user.ID, "error", err.Error())
		}
	}
	return s.session(user)
}

// Login 邮箱或用户名登录
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	var (
		user *entity.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetByEmail(ctx, entity.NormalizeEmail(login))
	} else {
		user, err = s.users.GetByUsername(ctx, login)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user")
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, apperrors.Unauthenticated("invalid email or password")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "user_id", user.ID, "error", err.Error())
	}
	return s.session(user)
}

// Refresh 用 RefreshToken 换发新令牌，角色以当前数据为准
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrTokenMissing
	}
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}
	if claims.Type != utils.TokenTypeRefresh {
		return nil, apperrors.ErrTokenInvalid
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user")
	}
	if user == nil {
		return nil, apperrors.ErrTokenInvalid
	}
	return s.session(user)
}

// Me 当前用户
func (s *Service) Me(ctx context.Context, actor entity.Actor) (*entity.User, error) {
	return s.user(ctx, actor.UserID)
}

// ProfilePatch 资料修改
type ProfilePatch struct {
	Bio    *string
	Avatar *string
}

// UpdateProfile 修改简介与头像
func (s *Service) UpdateProfile(ctx context.Context, actor entity.Actor, patch ProfilePatch) (*entity.User, error) {
	user, err := s.user(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if patch.Bio != nil {
		user.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.Avatar != nil {
		user.Avatar = strings.TrimSpace(*patch.Avatar)
	}
	if len([]rune(user.Bio)) > maxBioLen {
		return nil, apperrors.ValidationField("bio", "must be at most 500 characters")
	}
	if err := s.users.UpdateProfile(ctx, user.ID, user.Bio, user.Avatar); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update profile")
	}
	return user, nil
}

// PreferencesPatch 偏好修改，nil 表示不修改
type PreferencesPatch struct {
	Theme      *entity.Theme
	FontSize   *int
	LineHeight *float64
}

// UpdatePreferences 修改阅读偏好
func (s *Service) UpdatePreferences(ctx context.Context, actor entity.Actor, patch PreferencesPatch) (entity.Preferences, error) {
	user, err := s.user(ctx, actor.UserID)
	if err != nil {
		return entity.Preferences{}, err
	}
	prefs := user.Preferences
	if patch.Theme != nil {
		prefs.Theme = *patch.Theme
	}
	if patch.FontSize != nil {
		prefs.FontSize = *patch.FontSize
	}
	if patch.LineHeight != nil {
		prefs.LineHeight = *patch.LineHeight
	}
	switch {
	case prefs.Theme != entity.ThemeLight && prefs.Theme != entity.ThemeDark:
		return entity.Preferences{}, apperrors.ValidationField("theme", "must be light or dark")
	case prefs.FontSize < 12 || prefs.FontSize > 32:
		return entity.Preferences{}, apperrors.ValidationField("font_size", "must be between 12 and 32")
	case prefs.LineHeight < 1.0 || prefs.LineHeight > 3.0:
		return entity.Preferences{}, apperrors.ValidationField("line_height", "must be between 1.0 and 3.0")
	}
	if err := s.users.UpdatePreferences(ctx, user.ID, prefs); err != nil {
		return entity.Preferences{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update preferences")
	}
	return prefs, nil
}

// History 阅读历史，最近在前
func (s *Service) History(ctx context.Context, actor entity.Actor) ([]entity.ReadingEntry, error) {
	user, err := s.user(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user.ReadingHistory == nil {
		return []entity.ReadingEntry{}, nil
	}
	return user.ReadingHistory, nil
}

// Profile 公开资料
type Profile struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Role      entity.UserRole   `json:"role"`
	Avatar    string            `json:"avatar,omitempty"`
	Bio       string            `json:"bio,omitempty"`
	Badges    entity.StringList `json:"badges"`
	Novels    []*entity.Novel   `json:"novels"`
	CreatedAt time.Time         `json:"created_at"`
}

// PublicProfile 用户公开资料及已上架作品
func (s *Service) PublicProfile(ctx context.Context, id string) (*Profile, error) {
	user, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Avatar:    user.Avatar,
		Bio:       user.Bio,
		Badges:    user.Badges,
		Novels:    []*entity.Novel{},
		CreatedAt: user.CreatedAt,
	}
	if profile.Badges == nil {
		profile.Badges = entity.StringList{}
	}
	if user.CanAuthor() {
		novels, err := s.novels.ListByAuthor(ctx, user.ID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list novels")
		}
		for _, n := range novels {
			if n.IsPublic() {
				profile.Novels = append(profile.Novels, n)
			}
		}
	}
	return profile, nil
}

func (s *Service) user(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user")
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) session(user *entity.User) (*Session, error) {
	tokens, err := s.jwt.GenerateTokenPair(utils.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}, s.ttl.Access, s.ttl.Refresh)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to generate tokens")
	}
	return &Session{User: user, Tokens: tokens, ExpiresIn: int(s.ttl.Access.Seconds())}, nil
}

func validUsername(name string) bool {
	n := len([]rune(strings.TrimSpace(name)))
	return n >= minUsernameLen && n <= maxUsernameLen
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Address == strings.TrimSpace(email)
}
