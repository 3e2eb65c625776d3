package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
)

// ChapterInput 创建章节参数
type ChapterInput struct {
	NovelID   string
	Title     string
	Content   string
	IsPremium bool
	Price     int
	Schedule  *time.Time
}

// ChapterPatch 更新章节参数，nil 表示不修改
type ChapterPatch struct {
	Title     *string
	Content   *string
	IsPremium *bool
	Price     *int
}

// ChapterView 阅读页数据
type ChapterView struct {
	Chapter *entity.Chapter `json:"chapter"`
	Novel   NovelSummary    `json:"novel"`
	Prev    *int            `json:"prev,omitempty"`
	Next    *int            `json:"next,omitempty"`
}

// NovelSummary 阅读页附带的小说信息
type NovelSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	AuthorID string `json:"author_id"`
}

// CreateChapter 新章节进入待审核；带未来定时的章节保存为草稿
func (s *Service) CreateChapter(ctx context.Context, actor entity.Actor, in ChapterInput) (*entity.Chapter, error) {
	novel, err := s.managedNovel(ctx, actor, in.NovelID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := validateChapter(in.Title, in.Content, in.Price); err != nil {
		return nil, err
	}
	if in.Schedule != nil && !in.Schedule.After(now) {
		return nil, apperrors.ValidationField("schedule", "must be in the future")
	}

	var chapter *entity.Chapter
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		number, err := s.chapters.NextNumber(ctx, novel.ID)
		if err != nil {
			return err
		}
		chapter = entity.NewChapter(novel.ID, number, strings.TrimSpace(in.Title), in.Content, in.Schedule, now)
		chapter.IsPremium = in.IsPremium
		chapter.Price = in.Price
		if err := s.chapters.Create(ctx, chapter); err != nil {
			return err
		}
		if chapter.IsCounted() {
			if _, err := s.stats.RecomputeNovelChapters(ctx, novel.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("chapter number already taken, retry")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create chapter")
	}
	logger.Info(ctx, "chapter submitted",
		"chapter_id", chapter.ID,
		"novel_id", novel.ID,
		"number", chapter.Number,
		"draft", chapter.IsDraft,
	)

	s.notifyAdmins(ctx, notify.Notice{
		Type:      entity.NotificationChapterPending,
		Title:     "New chapter awaiting review",
		Message:   fmt.Sprintf("Chapter %d %q of %q was submitted for review.", chapter.Number, chapter.Title, novel.Title),
		NovelID:   novel.ID,
		ChapterID: chapter.ID,
		UserID:    novel.AuthorID,
		ActionURL: "/admin",
		Metadata: &entity.NotificationMetadata{Moderation: &entity.ModerationMeta{
			NovelTitle:    novel.Title,
			ChapterTitle:  chapter.Title,
			ChapterNumber: chapter.Number,
		}},
	})
	return chapter, nil
}

// ReadChapter 阅读章节：可见性与付费校验，阅读数 +1，登录读者记录阅读历史
func (s *Service) ReadChapter(ctx context.Context, actor entity.Actor, slug string, number int) (*ChapterView, error) {
	novel, err := s.visibleNovel(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	ch, err := s.chapters.GetByNovelAndNumber(ctx, novel.ID, number)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	manager := actor.CanManage(novel.AuthorID)
	if ch == nil || (!ch.IsVisible() && !manager) {
		return nil, apperrors.ErrChapterNotFound
	}

	var reader *entity.User
	if !actor.IsAnonymous() {
		if reader, err = s.users.GetByID(ctx, actor.UserID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load reader")
		}
	}
	if ch.IsPremium && !manager && (reader == nil || !reader.IsPremium) {
		return nil, apperrors.ErrPremiumRequired
	}

	if err := s.chapters.IncrementViews(ctx, ch.ID); err != nil {
		logger.Warn(ctx, "failed to count chapter view", "chapter_id", ch.ID, "error", err.Error())
	} else {
		ch.Views++
	}
	if reader != nil {
		s.recordReading(ctx, reader, ch)
	}

	view := &ChapterView{
		Chapter: ch,
		Novel:   NovelSummary{ID: novel.ID, Title: novel.Title, Slug: novel.Slug, AuthorID: novel.AuthorID},
	}
	s.neighbours(ctx, view, !manager)
	return view, nil
}

func (s *Service) recordReading(ctx context.Context, reader *entity.User, ch *entity.Chapter) {
	reader.RecordReading(entity.ReadingEntry{
		NovelID:       ch.NovelID,
		ChapterID:     ch.ID,
		ChapterNumber: ch.Number,
		ReadAt:        s.now(),
	})
	if err := s.users.UpdateReadingHistory(ctx, reader.ID, reader.ReadingHistory); err != nil {
		logger.Warn(ctx, "failed to update reading history", "user_id", reader.ID, "error", err.Error())
	}
}

// neighbours 填充上一章、下一章，章节号允许有空缺
func (s *Service) neighbours(ctx context.Context, view *ChapterView, visibleOnly bool) {
	list, err := s.chapters.ListByNovel(ctx, view.Novel.ID, visibleOnly)
	if err != nil {
		logger.Warn(ctx, "failed to list chapters", "novel_id", view.Novel.ID, "error", err.Error())
		return
	}
	current := view.Chapter.Number
	for _, c := range list {
		n := c.Number
		if n < current && (view.Prev == nil || n > *view.Prev) {
			view.Prev = &n
		}
		if n > current && (view.Next == nil || n < *view.Next) {
			view.Next = &n
		}
	}
}

// UpdateChapter 更新章节并重算字数与小说统计
func (s *Service) UpdateChapter(ctx context.Context, actor entity.Actor, id string, patch ChapterPatch) (*entity.Chapter, error) {
	ch, _, err := s.managedChapter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		ch.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		ch.SetContent(*patch.Content)
	}
	if patch.IsPremium != nil {
		ch.IsPremium = *patch.IsPremium
	}
	if patch.Price != nil {
		ch.Price = *patch.Price
	}
	if err := validateChapter(ch.Title, ch.Content, ch.Price); err != nil {
		return nil, err
	}
	ch.UpdatedAt = s.now()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.chapters.Update(ctx, ch); err != nil {
			return err
		}
		_, err := s.stats.RecomputeNovelChapters(ctx, ch.NovelID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrChapterNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update chapter")
	}
	return ch, nil
}

// PublishChapter 立即发布草稿
func (s *Service) PublishChapter(ctx context.Context, actor entity.Actor, id string) (*entity.Chapter, error) {
	ch, novel, err := s.managedChapter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.chapters.MarkPublished(ctx, ch.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrConflict
		}
		_, err = s.stats.RecomputeNovelChapters(ctx, ch.NovelID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("chapter is already published")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to publish chapter")
	}
	ch.Publish(now)
	if ch.IsVisible() && novel.IsPublic() && s.announcer != nil {
		s.announcer.ChapterReleased(ctx, novel, ch)
	}
	return ch, nil
}

// DeleteChapter 删除章节及其评论，并重算小说统计
func (s *Service) DeleteChapter(ctx context.Context, actor entity.Actor, id string) error {
	ch, _, err := s.managedChapter(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.chapters.Delete(ctx, ch.ID); err != nil {
			return err
		}
		_, err := s.stats.RecomputeNovelChapters(ctx, ch.NovelID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrChapterNotFound
		}
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete chapter")
	}
	return nil
}

// managedChapter 章节所属小说的作者或管理员，否则表现为不存在
func (s *Service) managedChapter(ctx context.Context, actor entity.Actor, id string) (*entity.Chapter, *entity.Novel, error) {
	ch, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	if ch == nil {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	novel, err := s.novels.GetByID(ctx, ch.NovelID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || !actor.CanManage(novel.AuthorID) {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	return ch, novel, nil
}

func validateChapter(title, content string, price int) error {
	switch {
	case len([]rune(strings.TrimSpace(title))) < minTitleLen:
		return apperrors.ValidationField("title", fmt.Sprintf("must be at least %d characters", minTitleLen))
	case len([]rune(strings.TrimSpace(title))) > maxTitleLen:
		return apperrors.ValidationField("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	case len([]rune(strings.TrimSpace(content))) < minChapterLength:
		return apperrors.ValidationField("content", fmt.Sprintf("must be at least %d characters", minChapterLength))
	case price < 0:
		return apperrors.ValidationField("price", "must not be negative")
	}
	return nil
}
