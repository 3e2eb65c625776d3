package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/application/content"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
	apperrors "novel-platform-api/pkg/errors"
)

// NovelHandler 小说处理器
type NovelHandler struct {
	content   *content.Service
	community *community.Service
}

// NewNovelHandler 创建小说处理器
func NewNovelHandler(contentSvc *content.Service, communitySvc *community.Service) *NovelHandler {
	return &NovelHandler{content: contentSvc, community: communitySvc}
}

// CreateNovel 提交小说，进入待审核
// @Summary 创建小说
// @Tags Novels
// @Router /v1/novels [post]
func (h *NovelHandler) CreateNovel(c *gin.Context) {
	var req dto.CreateNovelRequest
	if !bindJSON(c, &req) {
		return
	}
	novel, err := h.content.CreateNovel(c.Request.Context(), middleware.CurrentActor(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, novel)
}

// GetNovel 小说详情及章节目录
// @Router /v1/novels/{slug} [get]
func (h *NovelHandler) GetNovel(c *gin.Context) {
	detail, err := h.content.GetNovel(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, detail)
}

// Stats 作者统计
// @Router /v1/novels/{slug}/stats [get]
func (h *NovelHandler) Stats(c *gin.Context) {
	stats, err := h.content.Stats(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, stats)
}

// ReadChapter 阅读章节
// @Router /v1/novels/{slug}/chapters/{number} [get]
func (h *NovelHandler) ReadChapter(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		respondError(c, apperrors.ErrChapterNotFound)
		return
	}
	view, err := h.content.ReadChapter(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), number)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, view)
}

// ListReviews 书评列表
// @Router /v1/novels/{slug}/reviews [get]
func (h *NovelHandler) ListReviews(c *gin.Context) {
	page, err := h.community.ListReviews(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.SuccessWithPage(c, page)
}

// UpdateNovel 修改小说
// @Router /v1/novels/{id} [put]
func (h *NovelHandler) UpdateNovel(c *gin.Context) {
	var req dto.UpdateNovelRequest
	if !bindJSON(c, &req) {
		return
	}
	novel, err := h.content.UpdateNovel(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, novel)
}

// DeleteNovel 删除小说
// @Router /v1/novels/{id} [delete]
func (h *NovelHandler) DeleteNovel(c *gin.Context) {
	if err := h.content.DeleteNovel(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "novel deleted")
}

// MyNovels 当前作者的小说
// @Router /v1/me/novels [get]
func (h *NovelHandler) MyNovels(c *gin.Context) {
	novels, err := h.content.MyNovels(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, novels)
}
