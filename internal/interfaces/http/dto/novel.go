package dto

import (
	"time"

	"novel-platform-api/internal/application/content"
	"novel-platform-api/internal/domain/entity"
)

// CreateNovelRequest 创建小说请求
type CreateNovelRequest struct {
	Title     string             `json:"title" binding:"required,max=200"`
	Synopsis  string             `json:"synopsis" binding:"required,max=5000"`
	Cover     string             `json:"cover,omitempty" binding:"omitempty,max=500"`
	Genres    []string           `json:"genres" binding:"required,min=1,max=10,dive,max=50"`
	Tags      []string           `json:"tags,omitempty" binding:"omitempty,max=20,dive,max=50"`
	Status    entity.NovelStatus `json:"status,omitempty" binding:"omitempty,oneof=ongoing completed hiatus"`
	IsMature  bool               `json:"is_mature"`
	IsPremium bool               `json:"is_premium"`
}

// ToInput 转换为服务参数
func (r *CreateNovelRequest) ToInput() content.NovelInput {
	return content.NovelInput{
		Title:     r.Title,
		Synopsis:  r.Synopsis,
		Cover:     r.Cover,
		Genres:    r.Genres,
		Tags:      r.Tags,
		Status:    r.Status,
		IsMature:  r.IsMature,
		IsPremium: r.IsPremium,
	}
}

// UpdateNovelRequest 更新小说请求
type UpdateNovelRequest struct {
	Title     *string             `json:"title,omitempty" binding:"omitempty,max=200"`
	Synopsis  *string             `json:"synopsis,omitempty" binding:"omitempty,max=5000"`
	Cover     *string             `json:"cover,omitempty" binding:"omitempty,max=500"`
	Genres    []string            `json:"genres,omitempty" binding:"omitempty,max=10,dive,max=50"`
	Tags      []string            `json:"tags,omitempty" binding:"omitempty,max=20,dive,max=50"`
	Status    *entity.NovelStatus `json:"status,omitempty" binding:"omitempty,oneof=ongoing completed hiatus"`
	IsMature  *bool               `json:"is_mature,omitempty"`
	IsPremium *bool               `json:"is_premium,omitempty"`
}

// ToPatch 转换为服务参数
func (r *UpdateNovelRequest) ToPatch() content.NovelPatch {
	return content.NovelPatch{
		Title:     r.Title,
		Synopsis:  r.Synopsis,
		Cover:     r.Cover,
		Genres:    r.Genres,
		Tags:      r.Tags,
		Status:    r.Status,
		IsMature:  r.IsMature,
		IsPremium: r.IsPremium,
	}
}

// CreateChapterRequest 创建章节请求，schedule 为未来时间时保存为定时草稿
type CreateChapterRequest struct {
	NovelID   string     `json:"novel_id" binding:"required,uuid"`
	Title     string     `json:"title" binding:"required,max=200"`
	Content   string     `json:"content" binding:"required"`
	IsPremium bool       `json:"is_premium"`
	Price     int        `json:"price" binding:"gte=0"`
	Schedule  *time.Time `json:"schedule,omitempty"`
}

// ToInput 转换为服务参数
func (r *CreateChapterRequest) ToInput() content.ChapterInput {
	return content.ChapterInput{
		NovelID:   r.NovelID,
		Title:     r.Title,
		Content:   r.Content,
		IsPremium: r.IsPremium,
		Price:     r.Price,
		Schedule:  r.Schedule,
	}
}

// UpdateChapterRequest 更新章节请求
type UpdateChapterRequest struct {
	Title     *string `json:"title,omitempty" binding:"omitempty,max=200"`
	Content   *string `json:"content,omitempty"`
	IsPremium *bool   `json:"is_premium,omitempty"`
	Price     *int    `json:"price,omitempty" binding:"omitempty,gte=0"`
}

// ToPatch 转换为服务参数
func (r *UpdateChapterRequest) ToPatch() content.ChapterPatch {
	return content.ChapterPatch{
		Title:     r.Title,
		Content:   r.Content,
		IsPremium: r.IsPremium,
		Price:     r.Price,
	}
}

// RejectRequest 驳回请求
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}
