// Package content 小说与章节的创作、阅读服务
package content

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
)

// 校验规则
const (
	minTitleLen      = 3
	maxTitleLen      = 200
	minSynopsisLen   = 50
	minChapterLength = 100
)

// Service 内容服务
type Service struct {
	tx         repository.Transactor
	novels     repository.NovelRepository
	chapters   repository.ChapterRepository
	users      repository.UserRepository
	stats      *stats.Aggregator
	dispatcher *notify.Dispatcher
	announcer  *notify.Announcer
	now        func() time.Time
}

// NewService 创建内容服务
func NewService(
	tx repository.Transactor,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	users repository.UserRepository,
	aggregator *stats.Aggregator,
	dispatcher *notify.Dispatcher,
	announcer *notify.Announcer,
) *Service {
	return &Service{
		tx:         tx,
		novels:     novels,
		chapters:   chapters,
		users:      users,
		stats:      aggregator,
		dispatcher: dispatcher,
		announcer:  announcer,
		now:        time.Now,
	}
}

// NovelInput 创建小说参数
type NovelInput struct {
	Title     string
	Synopsis  string
	Cover     string
	Genres    []string
	Tags      []string
	Status    entity.NovelStatus
	IsMature  bool
	IsPremium bool
}

// NovelPatch 更新小说参数，nil 表示不修改
type NovelPatch struct {
	Title     *string
	Synopsis  *string
	Cover     *string
	Genres    []string
	Tags      []string
	Status    *entity.NovelStatus
	IsMature  *bool
	IsPremium *bool
}

// NovelDetail 小说详情及可见章节
type NovelDetail struct {
	*entity.Novel
	Chapters []*entity.Chapter `json:"chapters"`
}

// NovelStats 作者视角的小说统计
type NovelStats struct {
	NovelID       string                `json:"novel_id"`
	TotalChapters int                   `json:"total_chapters"`
	TotalWords    int                   `json:"total_words"`
	Views         int64                 `json:"views"`
	RatingAverage float64               `json:"rating_average"`
	RatingCount   int                   `json:"rating_count"`
	Approval      entity.ApprovalStatus `json:"approval_status"`
	Chapters      entity.ApprovalCounts `json:"chapters"`
	Badges        entity.StringList     `json:"badges"`
}

// CreateNovel 作者提交小说，进入待审核并通知管理员
func (s *Service) CreateNovel(ctx context.Context, actor entity.Actor, in NovelInput) (*entity.Novel, error) {
	if !actor.CanAuthor() {
		return nil, apperrors.Forbidden("author role required")
	}
	if in.Status == "" {
		in.Status = entity.NovelStatusOngoing
	}
	if err := validateNovel(in.Title, in.Synopsis, in.Genres, in.Status); err != nil {
		return nil, err
	}

	novel := entity.NewNovel(actor.UserID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Synopsis), s.now())
	novel.Cover = in.Cover
	novel.Genres = entity.StringList(in.Genres)
	novel.Tags = entity.StringList(nonNil(in.Tags))
	novel.Status = in.Status
	novel.IsMature = in.IsMature
	novel.IsPremium = in.IsPremium

	if err := s.novels.Create(ctx, novel); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("a novel with this title was just created, retry")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create novel")
	}
	logger.Info(ctx, "novel submitted", "novel_id", novel.ID, "author_id", novel.AuthorID)

	s.notifyAdmins(ctx, notify.Notice{
		Type:      entity.NotificationNovelPending,
		Title:     "New novel awaiting review",
		Message:   fmt.Sprintf("%q was submitted for review.", novel.Title),
		NovelID:   novel.ID,
		UserID:    novel.AuthorID,
		ActionURL: "/admin",
		Metadata:  &entity.NotificationMetadata{Moderation: &entity.ModerationMeta{NovelTitle: novel.Title}},
	})
	return novel, nil
}

// GetNovel 按 slug 读取小说；未通过的小说只有作者和管理员可见
func (s *Service) GetNovel(ctx context.Context, actor entity.Actor, slug string) (*NovelDetail, error) {
	novel, err := s.visibleNovel(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if err := s.novels.IncrementViews(ctx, novel.ID); err != nil {
		logger.Warn(ctx, "failed to count novel view", "novel_id", novel.ID, "error", err.Error())
	} else {
		novel.Views++
	}

	chapters, err := s.chapters.ListByNovel(ctx, novel.ID, !actor.CanManage(novel.AuthorID))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list chapters")
	}
	return &NovelDetail{Novel: novel, Chapters: chapters}, nil
}

// UpdateNovel 更新内容字段，审核状态保持不变
func (s *Service) UpdateNovel(ctx context.Context, actor entity.Actor, id string, patch NovelPatch) (*entity.Novel, error) {
	novel, err := s.managedNovel(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		novel.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Synopsis != nil {
		novel.Synopsis = strings.TrimSpace(*patch.Synopsis)
	}
	if patch.Cover != nil {
		novel.Cover = *patch.Cover
	}
	if patch.Genres != nil {
		novel.Genres = entity.StringList(patch.Genres)
	}
	if patch.Tags != nil {
		novel.Tags = entity.StringList(patch.Tags)
	}
	if patch.Status != nil {
		novel.Status = *patch.Status
	}
	if patch.IsMature != nil {
		novel.IsMature = *patch.IsMature
	}
	if patch.IsPremium != nil {
		novel.IsPremium = *patch.IsPremium
	}
	if err := validateNovel(novel.Title, novel.Synopsis, novel.Genres, novel.Status); err != nil {
		return nil, err
	}
	novel.UpdatedAt = s.now()

	if err := s.novels.Update(ctx, novel); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrNovelNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update novel")
	}
	return novel, nil
}

// DeleteNovel 删除小说及其章节、评论、书评、书签
func (s *Service) DeleteNovel(ctx context.Context, actor entity.Actor, id string) error {
	novel, err := s.managedNovel(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.novels.Delete(ctx, novel.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrNovelNotFound
		}
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete novel")
	}
	logger.Info(ctx, "novel deleted", "novel_id", novel.ID, "actor_id", actor.UserID)
	return nil
}

// MyNovels 当前作者的全部小说
func (s *Service) MyNovels(ctx context.Context, actor entity.Actor) ([]*entity.Novel, error) {
	if !actor.CanAuthor() {
		return nil, apperrors.Forbidden("author role required")
	}
	novels, err := s.novels.ListByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list novels")
	}
	return novels, nil
}

// Stats 作者或管理员查看小说统计，同时刷新作者徽章
func (s *Service) Stats(ctx context.Context, actor entity.Actor, slug string) (*NovelStats, error) {
	novel, err := s.novels.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || !actor.CanManage(novel.AuthorID) {
		return nil, apperrors.ErrNovelNotFound
	}
	counts, err := s.chapters.CountByNovel(ctx, novel.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}
	badges, err := s.stats.RefreshAuthorBadges(ctx, novel.AuthorID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to refresh badges")
	}
	return &NovelStats{
		NovelID:       novel.ID,
		TotalChapters: novel.TotalChapters,
		TotalWords:    novel.TotalWords,
		Views:         novel.Views,
		RatingAverage: novel.RatingAverage,
		RatingCount:   novel.RatingCount,
		Approval:      novel.ApprovalStatus,
		Chapters:      counts,
		Badges:        badges,
	}, nil
}

// visibleNovel 对无权查看的调用方表现为不存在
func (s *Service) visibleNovel(ctx context.Context, actor entity.Actor, slug string) (*entity.Novel, error) {
	novel, err := s.novels.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || (!novel.IsPublic() && !actor.CanManage(novel.AuthorID)) {
		return nil, apperrors.ErrNovelNotFound
	}
	return novel, nil
}

// managedNovel 作者本人或管理员，否则表现为不存在
func (s *Service) managedNovel(ctx context.Context, actor entity.Actor, id string) (*entity.Novel, error) {
	novel, err := s.novels.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || !actor.CanManage(novel.AuthorID) {
		return nil, apperrors.ErrNovelNotFound
	}
	return novel, nil
}

// notifyAdmins 提交审核时通知全部管理员，失败只记录日志
func (s *Service) notifyAdmins(ctx context.Context, template notify.Notice) {
	admins, err := s.users.ListByRole(ctx, entity.UserRoleAdmin)
	if err != nil {
		logger.Error(ctx, "failed to list admins", err)
		return
	}
	notices := make([]notify.Notice, 0, len(admins))
	for _, admin := range admins {
		n := template
		n.RecipientID = admin.ID
		notices = append(notices, n)
	}
	if _, err := s.dispatcher.NotifyMany(ctx, notices); err != nil {
		logger.Error(ctx, "failed to notify admins", err, "type", string(template.Type))
	}
}

func validateNovel(title, synopsis string, genres []string, status entity.NovelStatus) error {
	title = strings.TrimSpace(title)
	switch {
	case len([]rune(title)) < minTitleLen:
		return apperrors.ValidationField("title", fmt.Sprintf("must be at least %d characters", minTitleLen))
	case len([]rune(title)) > maxTitleLen:
		return apperrors.ValidationField("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	case len([]rune(strings.TrimSpace(synopsis))) < minSynopsisLen:
		return apperrors.ValidationField("synopsis", fmt.Sprintf("must be at least %d characters", minSynopsisLen))
	case len(genres) == 0:
		return apperrors.ValidationField("genres", "at least one genre is required")
	case !status.IsValid():
		return apperrors.ValidationField("status", "must be one of ongoing, completed, hiatus")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
