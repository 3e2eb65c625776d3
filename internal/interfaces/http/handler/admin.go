package handler

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/moderation"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

// AdminHandler 审核后台处理器
type AdminHandler struct {
	moderation *moderation.Service
}

// NewAdminHandler 创建审核后台处理器
func NewAdminHandler(svc *moderation.Service) *AdminHandler {
	return &AdminHandler{moderation: svc}
}

// Stats 后台统计
// @Router /v1/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, stats)
}

// PendingNovels 待审核小说，最早提交在前
// @Router /v1/admin/novels/pending [get]
func (h *AdminHandler) PendingNovels(c *gin.Context) {
	novels, err := h.moderation.PendingNovels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, novels)
}

// PendingChapters 待审核章节
// @Router /v1/admin/chapters/pending [get]
func (h *AdminHandler) PendingChapters(c *gin.Context) {
	chapters, err := h.moderation.PendingChapters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, chapters)
}

// ApproveNovel 通过小说
// @Router /v1/admin/novels/{id}/approve [post]
func (h *AdminHandler) ApproveNovel(c *gin.Context) {
	novel, err := h.moderation.ApproveNovel(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, novel)
}

// RejectNovel 驳回小说，需要理由
// @Router /v1/admin/novels/{id}/reject [post]
func (h *AdminHandler) RejectNovel(c *gin.Context) {
	var req dto.RejectRequest
	if !bindJSON(c, &req) {
		return
	}
	novel, err := h.moderation.RejectNovel(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, novel)
}

// ApproveChapter 通过章节
// @Router /v1/admin/chapters/{id}/approve [post]
func (h *AdminHandler) ApproveChapter(c *gin.Context) {
	ch, err := h.moderation.ApproveChapter(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, ch)
}

// RejectChapter 驳回章节
// @Router /v1/admin/chapters/{id}/reject [post]
func (h *AdminHandler) RejectChapter(c *gin.Context) {
	var req dto.RejectRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.moderation.RejectChapter(c.Request.Context(), middleware.CurrentActor(c).UserID, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, ch)
}
