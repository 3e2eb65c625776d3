// Package moderation 小说与章节的审核流程
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/metrics"
)

// KeyAdminStats 管理后台统计缓存键
const KeyAdminStats = "cache:admin:stats"

const pendingLimit = 200

// StatsCache 管理后台统计的读穿透缓存
type StatsCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error
	Delete(ctx context.Context, keys ...string) error
}

// Service 审核服务
// 状态迁移由仓储的条件更新保证线性化，提交后的通知与推送均为尽力而为
type Service struct {
	tx         repository.Transactor
	novels     repository.NovelRepository
	chapters   repository.ChapterRepository
	users      repository.UserRepository
	stats      *stats.Aggregator
	dispatcher *notify.Dispatcher
	announcer  *notify.Announcer
	cache      StatsCache
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewService 创建审核服务，cache 为 nil 或 cacheTTL 为 0 时不缓存统计
func NewService(
	tx repository.Transactor,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	users repository.UserRepository,
	aggregator *stats.Aggregator,
	dispatcher *notify.Dispatcher,
	announcer *notify.Announcer,
	cache StatsCache,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		tx:         tx,
		novels:     novels,
		chapters:   chapters,
		users:      users,
		stats:      aggregator,
		dispatcher: dispatcher,
		announcer:  announcer,
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// ApproveNovel 通过小说
func (s *Service) ApproveNovel(ctx context.Context, moderatorID, novelID string) (*entity.Novel, error) {
	return s.decideNovel(ctx, moderatorID, novelID, entity.ApprovalApproved, "")
}

// RejectNovel 驳回小说，理由不能为空
func (s *Service) RejectNovel(ctx context.Context, moderatorID, novelID, reason string) (*entity.Novel, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ValidationField("reason", "rejection reason is required")
	}
	return s.decideNovel(ctx, moderatorID, novelID, entity.ApprovalRejected, reason)
}

// ApproveChapter 通过章节，同时清除草稿标记并重算小说统计
func (s *Service) ApproveChapter(ctx context.Context, moderatorID, chapterID string) (*entity.Chapter, error) {
	return s.decideChapter(ctx, moderatorID, chapterID, entity.ApprovalApproved, "")
}

// RejectChapter 驳回章节，理由不能为空
func (s *Service) RejectChapter(ctx context.Context, moderatorID, chapterID, reason string) (*entity.Chapter, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ValidationField("reason", "rejection reason is required")
	}
	return s.decideChapter(ctx, moderatorID, chapterID, entity.ApprovalRejected, reason)
}

func (s *Service) decideNovel(ctx context.Context, moderatorID, novelID string, to entity.ApprovalStatus, reason string) (*entity.Novel, error) {
	decision := repository.ApprovalDecision{To: to, ModeratorID: moderatorID, Reason: reason, At: s.now()}

	var novel *entity.Novel
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.novels.TransitionApproval(ctx, novelID, decision); err != nil {
			return err
		}
		n, err := s.novels.GetByID(ctx, novelID)
		if err != nil {
			return err
		}
		if n == nil {
			return repository.ErrNotFound
		}
		novel = n
		return nil
	})
	if err != nil {
		record("novel", to, err)
		return nil, decisionError(err, apperrors.ErrNovelNotFound)
	}
	record("novel", to, nil)
	logger.Info(ctx, "novel moderated",
		"novel_id", novel.ID,
		"decision", string(to),
		"moderator_id", moderatorID,
	)

	if to == entity.ApprovalApproved {
		if _, err := s.stats.RefreshAuthorBadges(ctx, novel.AuthorID); err != nil {
			logger.Error(ctx, "failed to refresh author badges", err, "author_id", novel.AuthorID)
		}
	}
	s.notifyDecision(ctx, novelNotice(novel, moderatorID))
	s.invalidate(ctx)
	return novel, nil
}

func (s *Service) decideChapter(ctx context.Context, moderatorID, chapterID string, to entity.ApprovalStatus, reason string) (*entity.Chapter, error) {
	at := s.now()
	decision := repository.ApprovalDecision{To: to, ModeratorID: moderatorID, Reason: reason, At: at}

	var (
		chapter *entity.Chapter
		novel   *entity.Novel
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.chapters.TransitionApproval(ctx, chapterID, decision); err != nil {
			return err
		}
		if to == entity.ApprovalApproved {
			if _, err := s.chapters.MarkPublished(ctx, chapterID, at); err != nil {
				return err
			}
		}
		ch, err := s.chapters.GetByID(ctx, chapterID)
		if err != nil {
			return err
		}
		if ch == nil {
			return repository.ErrNotFound
		}
		n, err := s.novels.GetByID(ctx, ch.NovelID)
		if err != nil {
			return err
		}
		if n == nil {
			return repository.ErrNotFound
		}
		if _, err := s.stats.RecomputeNovelChapters(ctx, n.ID); err != nil {
			return err
		}
		chapter, novel = ch, n
		return nil
	})
	if err != nil {
		record("chapter", to, err)
		return nil, decisionError(err, apperrors.ErrChapterNotFound)
	}
	record("chapter", to, nil)
	logger.Info(ctx, "chapter moderated",
		"chapter_id", chapter.ID,
		"novel_id", novel.ID,
		"decision", string(to),
		"moderator_id", moderatorID,
	)

	s.notifyDecision(ctx, chapterNotice(novel, chapter, moderatorID))
	if to == entity.ApprovalApproved && novel.IsPublic() && s.announcer != nil {
		s.announcer.ChapterReleased(ctx, novel, chapter)
	}
	s.invalidate(ctx)
	return chapter, nil
}

// notifyDecision 状态已提交，通知失败只记录缺口
func (s *Service) notifyDecision(ctx context.Context, notice notify.Notice) {
	if _, err := s.dispatcher.Notify(ctx, notice); err != nil {
		logger.Error(ctx, "notification gap after moderation decision", err,
			"recipient_id", notice.RecipientID,
			"type", string(notice.Type),
		)
	}
}

func novelNotice(n *entity.Novel, moderatorID string) notify.Notice {
	meta := &entity.ModerationMeta{NovelTitle: n.Title, ModeratorID: moderatorID}
	notice := notify.Notice{
		RecipientID: n.AuthorID,
		NovelID:     n.ID,
		UserID:      moderatorID,
		Metadata:    &entity.NotificationMetadata{Moderation: meta},
	}
	if n.IsApproved() {
		notice.Type = entity.NotificationNovelApproved
		notice.Title = "Novel approved"
		notice.Message = fmt.Sprintf("Your novel %q has been approved and is now live.", n.Title)
		notice.ActionURL = n.Path()
		return notice
	}
	meta.RejectionReason = n.RejectionReason
	notice.Type = entity.NotificationNovelRejected
	notice.Title = "Novel rejected"
	notice.Message = fmt.Sprintf("Your novel %q has been rejected. Reason: %s", n.Title, n.RejectionReason)
	notice.ActionURL = "/dashboard"
	return notice
}

func chapterNotice(n *entity.Novel, ch *entity.Chapter, moderatorID string) notify.Notice {
	meta := &entity.ModerationMeta{
		NovelTitle:    n.Title,
		ChapterTitle:  ch.Title,
		ChapterNumber: ch.Number,
		ModeratorID:   moderatorID,
	}
	notice := notify.Notice{
		RecipientID: n.AuthorID,
		NovelID:     n.ID,
		ChapterID:   ch.ID,
		UserID:      moderatorID,
		Metadata:    &entity.NotificationMetadata{Moderation: meta},
	}
	if ch.IsApproved() {
		notice.Type = entity.NotificationChapterApproved
		notice.Title = "Chapter approved"
		notice.Message = fmt.Sprintf("Chapter %d %q of %q has been approved.", ch.Number, ch.Title, n.Title)
		notice.ActionURL = ch.Path(n.Slug)
		return notice
	}
	meta.RejectionReason = ch.RejectionReason
	notice.Type = entity.NotificationChapterRejected
	notice.Title = "Chapter rejected"
	notice.Message = fmt.Sprintf("Chapter %d %q of %q has been rejected. Reason: %s", ch.Number, ch.Title, n.Title, ch.RejectionReason)
	notice.ActionURL = "/dashboard"
	return notice
}

// decisionError 仓储哨兵错误转为应用错误
func decisionError(err error, notFound *apperrors.AppError) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return apperrors.ErrAlreadyProcessed
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to apply moderation decision")
	}
}

func record(subject string, to entity.ApprovalStatus, err error) {
	result := "applied"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		result = "conflict"
	case errors.Is(err, repository.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.ModerationDecisions.WithLabelValues(subject, string(to), result).Inc()
}

// PendingNovels 待审核小说，最早提交的在前
func (s *Service) PendingNovels(ctx context.Context) ([]*entity.Novel, error) {
	novels, err := s.novels.ListPending(ctx, pendingLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list pending novels")
	}
	return novels, nil
}

// PendingChapter 待审核章节及所属小说
type PendingChapter struct {
	*entity.Chapter
	NovelTitle string `json:"novel_title"`
	NovelSlug  string `json:"novel_slug"`
}

// PendingChapters 待审核章节，最早提交的在前
func (s *Service) PendingChapters(ctx context.Context) ([]*PendingChapter, error) {
	chapters, err := s.chapters.ListPending(ctx, pendingLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list pending chapters")
	}
	novels := make(map[string]*entity.Novel)
	out := make([]*PendingChapter, 0, len(chapters))
	for _, ch := range chapters {
		n, ok := novels[ch.NovelID]
		if !ok {
			if n, err = s.novels.GetByID(ctx, ch.NovelID); err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
			}
			novels[ch.NovelID] = n
		}
		item := &PendingChapter{Chapter: ch}
		if n != nil {
			item.NovelTitle = n.Title
			item.NovelSlug = n.Slug
		}
		out = append(out, item)
	}
	return out, nil
}

// Dashboard 管理后台统计
func (s *Service) Dashboard(ctx context.Context) (*entity.AdminStats, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return s.loadStats(ctx)
	}
	var out entity.AdminStats
	err := s.cache.GetOrLoad(ctx, KeyAdminStats, s.cacheTTL, &out, func(ctx context.Context) (interface{}, error) {
		return s.loadStats(ctx)
	})
	if err != nil {
		return nil, apperrors.AsAppError(err)
	}
	return &out, nil
}

func (s *Service) loadStats(ctx context.Context) (*entity.AdminStats, error) {
	var (
		out entity.AdminStats
		err error
	)
	if out.PendingNovels, err = s.novels.CountByApproval(ctx, entity.ApprovalPending); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count novels")
	}
	if out.PendingChapters, err = s.chapters.CountByApproval(ctx, entity.ApprovalPending); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}
	if out.TotalNovels, err = s.novels.CountByApproval(ctx, entity.ApprovalApproved); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count novels")
	}
	if out.TotalChapters, err = s.chapters.CountByApproval(ctx, entity.ApprovalApproved); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}
	if out.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count users")
	}
	return &out, nil
}

// invalidate 决定后清除统计缓存
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Delete(ctx, KeyAdminStats); err != nil {
		logger.Warn(ctx, "failed to invalidate admin stats", "error", err.Error())
	}
}
