package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment 章节评论，只支持一层回复
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ChapterID string    `json:"chapter_id" gorm:"type:uuid;not null;index"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;index"`
	ParentID  *string   `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Likes     int       `json:"likes" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate 生成主键
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsReply 是否为回复
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// CommentLike 评论点赞
type CommentLike struct {
	CommentID string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (CommentLike) TableName() string {
	return "comment_likes"
}

// Review 小说书评，每个用户对每部小说仅一条
type Review struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	NovelID   string    `json:"novel_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_novel_user,priority:1"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_novel_user,priority:2"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title,omitempty" gorm:"type:varchar(200)"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Helpful   int       `json:"helpful" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate 生成主键
func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ReviewVote 书评“有帮助”投票
type ReviewVote struct {
	ReviewID  string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ReviewVote) TableName() string {
	return "review_votes"
}

// SubscriptionTarget 订阅目标类型
type SubscriptionTarget string

const (
	SubscribeUser  SubscriptionTarget = "user"
	SubscribeNovel SubscriptionTarget = "novel"
)

// IsValid 检查订阅目标类型是否合法
func (t SubscriptionTarget) IsValid() bool {
	return t == SubscribeUser || t == SubscribeNovel
}

// Subscription 订阅关系
type Subscription struct {
	UserID     string             `json:"user_id" gorm:"type:uuid;primaryKey"`
	TargetType SubscriptionTarget `json:"target_type" gorm:"type:varchar(10);primaryKey"`
	TargetID   string             `json:"target_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time          `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// Bookmark 书签，每个用户每部小说一条
type Bookmark struct {
	UserID    string    `json:"user_id" gorm:"type:uuid;primaryKey"`
	NovelID   string    `json:"novel_id" gorm:"type:uuid;primaryKey"`
	ChapterID *string   `json:"chapter_id,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Bookmark) TableName() string {
	return "bookmarks"
}
