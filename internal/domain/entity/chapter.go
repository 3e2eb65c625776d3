package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novel-platform-api/pkg/utils"
)

// Chapter 章节实体
type Chapter struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	NovelID       string     `json:"novel_id" gorm:"type:uuid;not null;uniqueIndex:idx_chapters_novel_number,priority:1"`
	Number        int        `json:"number" gorm:"not null;uniqueIndex:idx_chapters_novel_number,priority:2"`
	Title         string     `json:"title" gorm:"type:varchar(255);not null"`
	Content       string     `json:"content,omitempty" gorm:"type:text"`
	WordCount     int        `json:"word_count" gorm:"not null;default:0"`
	IsPremium     bool       `json:"is_premium"`
	Price         int        `json:"price" gorm:"not null;default:0"`
	IsDraft       bool       `json:"is_draft" gorm:"index"`
	Schedule      *time.Time `json:"schedule,omitempty" gorm:"index"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Approval      `gorm:"embedded"`
	Views         int64     `json:"views" gorm:"not null;default:0"`
	RatingAverage float64   `json:"rating_average" gorm:"not null;default:0"`
	RatingCount   int       `json:"rating_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// BeforeCreate 生成主键
func (c *Chapter) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// NewChapter 创建待审核章节
// 带未来定时的章节作为草稿保存，否则立即发布
func NewChapter(novelID string, number int, title, content string, schedule *time.Time, now time.Time) *Chapter {
	c := &Chapter{
		NovelID:   novelID,
		Number:    number,
		Title:     title,
		Approval:  Submission(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetContent(content)
	if schedule != nil && schedule.After(now) {
		at := *schedule
		c.IsDraft = true
		c.Schedule = &at
	} else {
		c.PublishedAt = &now
	}
	return c
}

// SetContent 设置章节内容并重算字数
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = utils.CountWords(content)
}

// Publish 清除草稿标记并设置发布时间
func (c *Chapter) Publish(now time.Time) {
	c.IsDraft = false
	c.Schedule = nil
	if c.PublishedAt == nil {
		c.PublishedAt = &now
	}
}

// IsVisible 普通读者是否可见
func (c *Chapter) IsVisible() bool {
	return c.IsApproved() && !c.IsDraft
}

// IsCounted 是否计入小说统计
func (c *Chapter) IsCounted() bool {
	return !c.IsDraft && c.ApprovalStatus != ApprovalRejected
}

// IsDue 定时发布时间已到
func (c *Chapter) IsDue(now time.Time) bool {
	return c.IsDraft && c.Schedule != nil && !c.Schedule.After(now)
}

// Path 前端访问路径
func (c *Chapter) Path(novelSlug string) string {
	return "/novel/" + novelSlug + "/" + strconv.Itoa(c.Number)
}
