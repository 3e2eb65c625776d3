// Package community 书评与章节评论
package community

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/utils"
)

const (
	maxReviewTitle   = 200
	maxReviewContent = 5000
	maxComment       = 1000
	excerptLength    = 100
)

// Service 社区服务
type Service struct {
	tx         repository.Transactor
	novels     repository.NovelRepository
	chapters   repository.ChapterRepository
	comments   repository.CommentRepository
	reviews    repository.ReviewRepository
	stats      *stats.Aggregator
	dispatcher *notify.Dispatcher
}

// NewService 创建社区服务
func NewService(
	tx repository.Transactor,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	comments repository.CommentRepository,
	reviews repository.ReviewRepository,
	aggregator *stats.Aggregator,
	dispatcher *notify.Dispatcher,
) *Service {
	return &Service{
		tx:         tx,
		novels:     novels,
		chapters:   chapters,
		comments:   comments,
		reviews:    reviews,
		stats:      aggregator,
		dispatcher: dispatcher,
	}
}

// ReviewInput 书评参数
type ReviewInput struct {
	NovelID string
	Rating  int
	Title   string
	Content string
}

// ReviewPatch 书评修改，nil 表示不修改
type ReviewPatch struct {
	Rating  *int
	Title   *string
	Content *string
}

// CreateReview 每位读者对每部小说只能评价一次，评价后重算评分并通知作者
func (s *Service) CreateReview(ctx context.Context, actor entity.Actor, in ReviewInput) (*entity.Review, error) {
	novel, err := s.publicNovel(ctx, actor, in.NovelID)
	if err != nil {
		return nil, err
	}
	review := &entity.Review{
		NovelID: novel.ID,
		UserID:  actor.UserID,
		Rating:  in.Rating,
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
	if err := validateReview(review); err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}
		_, err := s.stats.RecomputeNovelRating(ctx, novel.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.ErrDuplicateReview
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create review")
	}

	s.notify(ctx, notify.Notice{
		RecipientID: novel.AuthorID,
		Type:        entity.NotificationNewReview,
		Title:       "New review",
		Message:     fmt.Sprintf("Your novel %q received a %d-star review.", novel.Title, review.Rating),
		NovelID:     novel.ID,
		UserID:      actor.UserID,
		ActionURL:   novel.Path(),
		Metadata:    &entity.NotificationMetadata{Review: &entity.ReviewMeta{ReviewID: review.ID, Rating: review.Rating}},
	})
	return review, nil
}

// UpdateReview 只有书评作者可以修改
func (s *Service) UpdateReview(ctx context.Context, actor entity.Actor, id string, patch ReviewPatch) (*entity.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load review")
	}
	if review == nil || review.UserID != actor.UserID {
		return nil, apperrors.ErrReviewNotFound
	}
	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	if patch.Title != nil {
		review.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		review.Content = strings.TrimSpace(*patch.Content)
	}
	if err := validateReview(review); err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reviews.Update(ctx, review); err != nil {
			return err
		}
		_, err := s.stats.RecomputeNovelRating(ctx, review.NovelID)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update review")
	}
	return review, nil
}

// ToggleHelpful 切换“有帮助”投票
func (s *Service) ToggleHelpful(ctx context.Context, actor entity.Actor, id string) (bool, int, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return false, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load review")
	}
	if review == nil {
		return false, 0, apperrors.ErrReviewNotFound
	}
	voted, helpful, err := s.reviews.ToggleHelpful(ctx, review.ID, actor.UserID)
	if err != nil {
		return false, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to vote")
	}
	return voted, helpful, nil
}

// ListReviews 小说书评，最新在前
func (s *Service) ListReviews(ctx context.Context, actor entity.Actor, slug string, pagination repository.Pagination) (*repository.PagedResult[*entity.Review], error) {
	novel, err := s.novels.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || (!novel.IsPublic() && !actor.CanManage(novel.AuthorID)) {
		return nil, apperrors.ErrNovelNotFound
	}
	page, err := s.reviews.ListByNovel(ctx, novel.ID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list reviews")
	}
	return page, nil
}

// CommentInput 评论参数，ParentID 为空时是顶层评论
type CommentInput struct {
	ChapterID string
	ParentID  string
	Content   string
}

// Thread 顶层评论及其回复
type Thread struct {
	*entity.Comment
	Replies []*entity.Comment `json:"replies"`
}

// ListComments 章节评论，按时间正序组织为两层
func (s *Service) ListComments(ctx context.Context, actor entity.Actor, chapterID string) ([]*Thread, error) {
	if _, _, err := s.readableChapter(ctx, actor, chapterID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list comments")
	}

	threads := make([]*Thread, 0, len(comments))
	byID := make(map[string]*Thread, len(comments))
	for _, c := range comments {
		if c.IsReply() {
			continue
		}
		t := &Thread{Comment: c, Replies: []*entity.Comment{}}
		byID[c.ID] = t
		threads = append(threads, t)
	}
	for _, c := range comments {
		if !c.IsReply() {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return threads, nil
}

// CreateComment 发表评论或回复，回复不能再被回复；非作者评论时通知作者
func (s *Service) CreateComment(ctx context.Context, actor entity.Actor, in CommentInput) (*entity.Comment, error) {
	ch, novel, err := s.readableChapter(ctx, actor, in.ChapterID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Content)
	if n := len([]rune(text)); n == 0 || n > maxComment {
		return nil, apperrors.ValidationField("content", fmt.Sprintf("must be between 1 and %d characters", maxComment))
	}

	comment := &entity.Comment{ChapterID: ch.ID, UserID: actor.UserID, Content: text}
	if in.ParentID != "" {
		parent, err := s.comments.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load comment")
		}
		switch {
		case parent == nil || parent.ChapterID != ch.ID:
			return nil, apperrors.ErrCommentNotFound
		case parent.IsReply():
			return nil, apperrors.ValidationField("parent_id", "replies cannot be replied to")
		}
		comment.ParentID = &parent.ID
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create comment")
	}

	if actor.UserID != novel.AuthorID {
		s.notify(ctx, notify.Notice{
			RecipientID: novel.AuthorID,
			Type:        entity.NotificationNewComment,
			Title:       "New comment",
			Message:     fmt.Sprintf("New comment on chapter %d of %q.", ch.Number, novel.Title),
			NovelID:     novel.ID,
			ChapterID:   ch.ID,
			UserID:      actor.UserID,
			ActionURL:   ch.Path(novel.Slug),
			Metadata: &entity.NotificationMetadata{Comment: &entity.CommentMeta{
				CommentID:    comment.ID,
				ChapterTitle: ch.Title,
				Excerpt:      utils.Excerpt(text, excerptLength),
			}},
		})
	}
	return comment, nil
}

// ToggleLike 切换点赞
func (s *Service) ToggleLike(ctx context.Context, actor entity.Actor, id string) (bool, int, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return false, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load comment")
	}
	if comment == nil {
		return false, 0, apperrors.ErrCommentNotFound
	}
	liked, likes, err := s.comments.ToggleLike(ctx, comment.ID, actor.UserID)
	if err != nil {
		return false, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to like comment")
	}
	return liked, likes, nil
}

// DeleteComment 评论者本人或管理员可删除，回复随之删除
func (s *Service) DeleteComment(ctx context.Context, actor entity.Actor, id string) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load comment")
	}
	if comment == nil {
		return apperrors.ErrCommentNotFound
	}
	if !actor.CanManage(comment.UserID) {
		return apperrors.Forbidden("only the author of a comment or an admin can delete it")
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete comment")
	}
	return nil
}

// publicNovel 可评价的小说：已通过，或调用方为作者/管理员
func (s *Service) publicNovel(ctx context.Context, actor entity.Actor, id string) (*entity.Novel, error) {
	novel, err := s.novels.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || (!novel.IsPublic() && !actor.CanManage(novel.AuthorID)) {
		return nil, apperrors.ErrNovelNotFound
	}
	return novel, nil
}

// readableChapter 章节与所属小说对调用方均可见
func (s *Service) readableChapter(ctx context.Context, actor entity.Actor, id string) (*entity.Chapter, *entity.Novel, error) {
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
	if novel == nil {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	manager := actor.CanManage(novel.AuthorID)
	if !manager && (!novel.IsPublic() || !ch.IsVisible()) {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	return ch, novel, nil
}

func (s *Service) notify(ctx context.Context, notice notify.Notice) {
	if _, err := s.dispatcher.Notify(ctx, notice); err != nil {
		logger.Error(ctx, "failed to create notification", err, "type", string(notice.Type))
	}
}

func validateReview(r *entity.Review) error {
	switch {
	case r.Rating < 1 || r.Rating > 5:
		return apperrors.ValidationField("rating", "must be between 1 and 5")
	case len([]rune(r.Title)) > maxReviewTitle:
		return apperrors.ValidationField("title", fmt.Sprintf("must be at most %d characters", maxReviewTitle))
	case r.Content == "" || len([]rune(r.Content)) > maxReviewContent:
		return apperrors.ValidationField("content", fmt.Sprintf("must be between 1 and %d characters", maxReviewContent))
	}
	return nil
}
