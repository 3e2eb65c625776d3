// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novel-platform-api/pkg/utils"
)

// NovelStatus 连载状态
type NovelStatus string

const (
	NovelStatusOngoing   NovelStatus = "ongoing"
	NovelStatusCompleted NovelStatus = "completed"
	NovelStatusHiatus    NovelStatus = "hiatus"
)

// IsValid 检查连载状态是否合法
func (s NovelStatus) IsValid() bool {
	switch s {
	case NovelStatusOngoing, NovelStatusCompleted, NovelStatusHiatus:
		return true
	}
	return false
}

// Novel 小说实体
type Novel struct {
	ID            string      `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string      `json:"title" gorm:"type:varchar(200);not null"`
	Slug          string      `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	AuthorID      string      `json:"author_id" gorm:"type:uuid;index;not null"`
	Synopsis      string      `json:"synopsis" gorm:"type:text"`
	Cover         string      `json:"cover,omitempty" gorm:"type:varchar(500)"`
	Genres        StringList  `json:"genres"`
	Tags          StringList  `json:"tags"`
	Status        NovelStatus `json:"status" gorm:"type:varchar(20);not null;default:'ongoing'"`
	IsMature      bool        `json:"is_mature"`
	IsPremium     bool        `json:"is_premium"`
	Approval      `gorm:"embedded"`
	TotalChapters int       `json:"total_chapters" gorm:"not null;default:0"`
	TotalWords    int       `json:"total_words" gorm:"not null;default:0"`
	Views         int64     `json:"views" gorm:"not null;default:0"`
	RatingAverage float64   `json:"rating_average" gorm:"not null;default:0"`
	RatingCount   int       `json:"rating_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Novel) TableName() string {
	return "novels"
}

// BeforeCreate 生成主键
func (n *Novel) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// NewNovel 创建待审核的小说
func NewNovel(authorID, title, synopsis string, now time.Time) *Novel {
	return &Novel{
		Title:     title,
		Slug:      utils.UniqueSlug(title, now),
		AuthorID:  authorID,
		Synopsis:  synopsis,
		Status:    NovelStatusOngoing,
		Approval:  Submission(),
		Genres:    StringList{},
		Tags:      StringList{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy 是否为作者本人
func (n *Novel) IsOwnedBy(userID string) bool {
	return userID != "" && n.AuthorID == userID
}

// IsPublic 普通读者是否可见
func (n *Novel) IsPublic() bool {
	return n.IsApproved()
}

// Path 前端访问路径
func (n *Novel) Path() string {
	return "/novel/" + n.Slug
}
