package dto

import (
	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/domain/entity"
)

// CreateReviewRequest 发表书评
type CreateReviewRequest struct {
	NovelID string `json:"novel_id" binding:"required,uuid"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title,omitempty" binding:"max=200"`
	Content string `json:"content" binding:"required,max=5000"`
}

// ToInput 转换为服务参数
func (r *CreateReviewRequest) ToInput() community.ReviewInput {
	return community.ReviewInput{NovelID: r.NovelID, Rating: r.Rating, Title: r.Title, Content: r.Content}
}

// UpdateReviewRequest 修改书评
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Title   *string `json:"title,omitempty" binding:"omitempty,max=200"`
	Content *string `json:"content,omitempty" binding:"omitempty,max=5000"`
}

// ToPatch 转换为服务参数
func (r *UpdateReviewRequest) ToPatch() community.ReviewPatch {
	return community.ReviewPatch{Rating: r.Rating, Title: r.Title, Content: r.Content}
}

// CreateCommentRequest 发表评论
type CreateCommentRequest struct {
	ChapterID string `json:"chapter_id" binding:"required,uuid"`
	ParentID  string `json:"parent_id,omitempty" binding:"omitempty,uuid"`
	Content   string `json:"content" binding:"required,max=1000"`
}

// ToInput 转换为服务参数
func (r *CreateCommentRequest) ToInput() community.CommentInput {
	return community.CommentInput{ChapterID: r.ChapterID, ParentID: r.ParentID, Content: r.Content}
}

// ToggleResponse 投票/点赞切换结果
type ToggleResponse struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// UpdatePreferencesRequest 修改阅读偏好
type UpdatePreferencesRequest struct {
	Theme      *entity.Theme `json:"theme,omitempty" binding:"omitempty,oneof=light dark"`
	FontSize   *int          `json:"font_size,omitempty" binding:"omitempty,min=12,max=32"`
	LineHeight *float64      `json:"line_height,omitempty" binding:"omitempty,min=1,max=3"`
}

// UpdateProfileRequest 修改资料
type UpdateProfileRequest struct {
	Bio    *string `json:"bio,omitempty" binding:"omitempty,max=500"`
	Avatar *string `json:"avatar,omitempty" binding:"omitempty,max=500"`
}

// SubscribeRequest 订阅
type SubscribeRequest struct {
	TargetType entity.SubscriptionTarget `json:"target_type" binding:"required,oneof=user novel"`
	TargetID   string                    `json:"target_id" binding:"required,uuid"`
}

// BookmarkRequest 添加书签
type BookmarkRequest struct {
	NovelID   string  `json:"novel_id" binding:"required,uuid"`
	ChapterID *string `json:"chapter_id,omitempty" binding:"omitempty,uuid"`
}
