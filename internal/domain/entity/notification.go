package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationNovelPending    NotificationType = "novel_pending"
	NotificationNovelApproved   NotificationType = "novel_approved"
	NotificationNovelRejected   NotificationType = "novel_rejected"
	NotificationChapterPending  NotificationType = "chapter_pending"
	NotificationChapterApproved NotificationType = "chapter_approved"
	NotificationChapterRejected NotificationType = "chapter_rejected"
	NotificationNewChapter      NotificationType = "new_chapter"
	NotificationNewComment      NotificationType = "new_comment"
	NotificationNewReview       NotificationType = "new_review"
)

// IsValid 检查通知类型是否合法
func (t NotificationType) IsValid() bool {
	return t.variant() != ""
}

// variant 类型对应的元数据变体
func (t NotificationType) variant() string {
	switch t {
	case NotificationNovelPending, NotificationNovelApproved, NotificationNovelRejected,
		NotificationChapterPending, NotificationChapterApproved, NotificationChapterRejected:
		return "moderation"
	case NotificationNewChapter:
		return "new_chapter"
	case NotificationNewComment:
		return "comment"
	case NotificationNewReview:
		return "review"
	}
	return ""
}

// ModerationMeta 审核类通知元数据
type ModerationMeta struct {
	NovelTitle      string `json:"novel_title"`
	ChapterTitle    string `json:"chapter_title,omitempty"`
	ChapterNumber   int    `json:"chapter_number,omitempty"`
	ModeratorID     string `json:"moderator_id,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// NewChapterMeta 新章节通知元数据
type NewChapterMeta struct {
	NovelTitle    string `json:"novel_title"`
	ChapterTitle  string `json:"chapter_title"`
	ChapterNumber int    `json:"chapter_number"`
}

// CommentMeta 评论通知元数据
type CommentMeta struct {
	CommentID    string `json:"comment_id"`
	ChapterTitle string `json:"chapter_title"`
	Excerpt      string `json:"excerpt"`
}

// ReviewMeta 书评通知元数据
type ReviewMeta struct {
	ReviewID string `json:"review_id"`
	Rating   int    `json:"rating"`
}

// NotificationMetadata 通知元数据，按类型只设置一个变体
type NotificationMetadata struct {
	Moderation *ModerationMeta `json:"moderation,omitempty"`
	NewChapter *NewChapterMeta `json:"new_chapter,omitempty"`
	Comment    *CommentMeta    `json:"comment,omitempty"`
	Review     *ReviewMeta     `json:"review,omitempty"`
}

// ErrMetadataMismatch 元数据变体与通知类型不匹配
var ErrMetadataMismatch = errors.New("notification metadata does not match type")

// set 返回已设置的变体名
func (m *NotificationMetadata) set() []string {
	if m == nil {
		return nil
	}
	var names []string
	if m.Moderation != nil {
		names = append(names, "moderation")
	}
	if m.NewChapter != nil {
		names = append(names, "new_chapter")
	}
	if m.Comment != nil {
		names = append(names, "comment")
	}
	if m.Review != nil {
		names = append(names, "review")
	}
	return names
}

// Notification 通知实体
type Notification struct {
	ID               string                `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID      string                `json:"recipient_id" gorm:"type:uuid;not null;index:idx_notifications_recipient,priority:1"`
	Type             NotificationType      `json:"type" gorm:"type:varchar(30);not null;index"`
	Title            string                `json:"title" gorm:"type:varchar(255);not null"`
	Message          string                `json:"message" gorm:"type:text;not null"`
	RelatedNovelID   *string               `json:"related_novel_id,omitempty" gorm:"type:uuid"`
	RelatedChapterID *string               `json:"related_chapter_id,omitempty" gorm:"type:uuid"`
	RelatedUserID    *string               `json:"related_user_id,omitempty" gorm:"type:uuid"`
	ActionURL        string                `json:"action_url,omitempty" gorm:"type:varchar(500)"`
	IsRead           bool                  `json:"is_read" gorm:"not null;index:idx_notifications_recipient,priority:2"`
	Metadata         *NotificationMetadata `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time             `json:"created_at" gorm:"autoCreateTime;index:idx_notifications_recipient,priority:3,sort:desc"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate 生成主键
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Validate 校验类型与元数据变体
func (n *Notification) Validate() error {
	want := n.Type.variant()
	if want == "" {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	if n.RecipientID == "" {
		return errors.New("notification recipient is required")
	}
	if n.Title == "" || n.Message == "" {
		return errors.New("notification title and message are required")
	}
	got := n.Metadata.set()
	if len(got) == 0 {
		return nil
	}
	if len(got) > 1 || got[0] != want {
		return fmt.Errorf("%w: type %s carries %v", ErrMetadataMismatch, n.Type, got)
	}
	return nil
}
