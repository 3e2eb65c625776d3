package handler

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

// CommunityHandler 书评与评论处理器
type CommunityHandler struct {
	community *community.Service
}

// NewCommunityHandler 创建社区处理器
func NewCommunityHandler(svc *community.Service) *CommunityHandler {
	return &CommunityHandler{community: svc}
}

// CreateReview 发表书评
func (h *CommunityHandler) CreateReview(c *gin.Context) {
	var req dto.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.community.CreateReview(c.Request.Context(), middleware.CurrentActor(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, review)
}

// UpdateReview 修改书评
func (h *CommunityHandler) UpdateReview(c *gin.Context) {
	var req dto.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.community.UpdateReview(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, review)
}

// ToggleHelpful 切换“有帮助”
func (h *CommunityHandler) ToggleHelpful(c *gin.Context) {
	voted, helpful, err := h.community.ToggleHelpful(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToggleResponse{Active: voted, Count: helpful})
}

// CreateComment 发表评论或回复
func (h *CommunityHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.community.CreateComment(c.Request.Context(), middleware.CurrentActor(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, comment)
}

// ToggleLike 切换点赞
func (h *CommunityHandler) ToggleLike(c *gin.Context) {
	liked, likes, err := h.community.ToggleLike(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToggleResponse{Active: liked, Count: likes})
}

// DeleteComment 删除评论
func (h *CommunityHandler) DeleteComment(c *gin.Context) {
	if err := h.community.DeleteComment(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "comment deleted")
}
