package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleReader UserRole = "reader"
	UserRoleAuthor UserRole = "author"
	UserRoleAdmin  UserRole = "admin"
)

// IsValid 检查角色是否合法
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleReader, UserRoleAuthor, UserRoleAdmin:
		return true
	}
	return false
}

// MaxReadingHistory 阅读历史保留条数
const MaxReadingHistory = 50

// Theme 阅读主题
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences 阅读偏好
type Preferences struct {
	Theme      Theme   `json:"theme"`
	FontSize   int     `json:"font_size"`
	LineHeight float64 `json:"line_height"`
}

// DefaultPreferences 默认阅读偏好
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, FontSize: 16, LineHeight: 1.6}
}

// ReadingEntry 阅读历史条目
type ReadingEntry struct {
	NovelID       string    `json:"novel_id"`
	ChapterID     string    `json:"chapter_id"`
	ChapterNumber int       `json:"chapter_number"`
	ReadAt        time.Time `json:"read_at"`
}

// User 用户实体
type User struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	Username       string         `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email          string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string         `json:"-" gorm:"type:varchar(255);not null"`
	Role           UserRole       `json:"role" gorm:"type:varchar(20);not null;default:'reader'"`
	Avatar         string         `json:"avatar,omitempty" gorm:"type:varchar(500)"`
	Bio            string         `json:"bio,omitempty" gorm:"type:text"`
	ReadingHistory []ReadingEntry `json:"-" gorm:"type:jsonb;serializer:json"`
	Preferences    Preferences    `json:"preferences" gorm:"type:jsonb;serializer:json"`
	Badges         StringList     `json:"badges"`
	IsPremium      bool           `json:"is_premium"`
	Balance        int            `json:"balance" gorm:"not null;default:0"`
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// NewUser 创建新用户
func NewUser(username, email string, role UserRole) *User {
	if !role.IsValid() {
		role = UserRoleReader
	}
	return &User{
		Username:       strings.TrimSpace(username),
		Email:          NormalizeEmail(email),
		Role:           role,
		Preferences:    DefaultPreferences(),
		ReadingHistory: []ReadingEntry{},
		Badges:         StringList{},
	}
}

// NormalizeEmail 邮箱统一小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin 检查用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanAuthor 是否可以创作
func (u *User) CanAuthor() bool {
	return u.Role == UserRoleAuthor || u.Role == UserRoleAdmin
}

// SetPassword 设置并散列密码
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordReading 记录阅读，同一小说只保留最新一条，按时间倒序，最多 MaxReadingHistory 条
func (u *User) RecordReading(entry ReadingEntry) {
	history := make([]ReadingEntry, 0, len(u.ReadingHistory)+1)
	history = append(history, entry)
	for _, e := range u.ReadingHistory {
		if e.NovelID == entry.NovelID {
			continue
		}
		history = append(history, e)
		if len(history) == MaxReadingHistory {
			break
		}
	}
	u.ReadingHistory = history
}
