package handler

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/application/content"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	content   *content.Service
	community *community.Service
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(contentSvc *content.Service, communitySvc *community.Service) *ChapterHandler {
	return &ChapterHandler{content: contentSvc, community: communitySvc}
}

// CreateChapter 创建章节
// @Summary 创建章节
// @Description 新章节进入待审核，带未来 schedule 时保存为定时草稿
// @Tags Chapters
// @Router /v1/chapters [post]
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	var req dto.CreateChapterRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.content.CreateChapter(c.Request.Context(), middleware.CurrentActor(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, ch)
}

// UpdateChapter 更新章节
// @Router /v1/chapters/{id} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	var req dto.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.content.UpdateChapter(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, ch)
}

// PublishChapter 立即发布草稿
// @Router /v1/chapters/{id}/publish [post]
func (h *ChapterHandler) PublishChapter(c *gin.Context) {
	ch, err := h.content.PublishChapter(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, ch)
}

// DeleteChapter 删除章节
// @Router /v1/chapters/{id} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	if err := h.content.DeleteChapter(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "chapter deleted")
}

// ListComments 章节评论
// @Router /v1/chapters/{id}/comments [get]
func (h *ChapterHandler) ListComments(c *gin.Context) {
	threads, err := h.community.ListComments(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, threads)
}
