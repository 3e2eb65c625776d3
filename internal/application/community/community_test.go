package community

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/internal/testutil"
	apperrors "novel-platform-api/pkg/errors"
)

type CommunitySuite struct {
	suite.Suite
	ctx   context.Context
	store *testutil.Store
	push  *testutil.RecordingPublisher
	svc   *Service

	author  *entity.User
	reader  *entity.User
	other   *entity.User
	admin   *entity.User
	novel   *entity.Novel
	chapter *entity.Chapter
}

func TestCommunitySuite(t *testing.T) {
	suite.Run(t, new(CommunitySuite))
}

func (s *CommunitySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewStore(s.T())
	s.push = &testutil.RecordingPublisher{}

	st := s.store
	agg := stats.NewAggregator(st.Novels, st.Chapters, st.Reviews, st.Users)
	dispatcher := notify.NewDispatcher(st.Notifications, s.push)
	s.svc = NewService(st.Tx, st.Novels, st.Chapters, st.Comments, st.Reviews, agg, dispatcher)

	s.author = st.SeedUser(s.T(), entity.UserRoleAuthor)
	s.reader = st.SeedUser(s.T(), entity.UserRoleReader)
	s.other = st.SeedUser(s.T(), entity.UserRoleReader)
	s.admin = st.SeedUser(s.T(), entity.UserRoleAdmin)
	s.novel = st.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	s.chapter = st.SeedChapter(s.T(), s.novel.ID, 1, strings.Repeat("word ", 150), func(c *entity.Chapter) {
		testutil.Approved(&c.Approval)
	})
}

func actorOf(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: u.Role}
}

func (s *CommunitySuite) inbox(userID string) []*entity.Notification {
	page, err := s.store.Notifications.ListByRecipient(s.ctx, userID, false, repository.NewPagination(1, 50))
	s.Require().NoError(err)
	return page.Items
}

func (s *CommunitySuite) review(u *entity.User, rating int) *entity.Review {
	r, err := s.svc.CreateReview(s.ctx, actorOf(u), ReviewInput{NovelID: s.novel.ID, Rating: rating, Content: "Loved every page of it."})
	s.Require().NoError(err)
	return r
}

func (s *CommunitySuite) TestReviewUpdatesRatingAndNotifiesAuthor() {
	s.review(s.reader, 5)
	s.review(s.other, 2)

	novel, err := s.store.Novels.GetByID(s.ctx, s.novel.ID)
	s.Require().NoError(err)
	s.Equal(2, novel.RatingCount)
	s.InDelta(3.5, novel.RatingAverage, 0.001)

	notes := s.inbox(s.author.ID)
	s.Require().Len(notes, 2)
	for _, n := range notes {
		s.Equal(entity.NotificationNewReview, n.Type)
		s.Require().NotNil(n.Metadata.Review)
	}
	s.Len(s.push.On(realtime.UserChannel(s.author.ID)), 2)
}

func (s *CommunitySuite) TestDuplicateReviewRejected() {
	s.review(s.reader, 4)
	_, err := s.svc.CreateReview(s.ctx, actorOf(s.reader), ReviewInput{NovelID: s.novel.ID, Rating: 1, Content: "Changed my mind."})
	s.ErrorIs(err, apperrors.ErrDuplicateReview)

	novel, err := s.store.Novels.GetByID(s.ctx, s.novel.ID)
	s.Require().NoError(err)
	s.Equal(1, novel.RatingCount)
	s.InDelta(4.0, novel.RatingAverage, 0.001)
}

func (s *CommunitySuite) TestReviewValidation() {
	cases := map[string]ReviewInput{
		"rating":  {NovelID: s.novel.ID, Rating: 6, Content: "ok"},
		"content": {NovelID: s.novel.ID, Rating: 3, Content: "   "},
		"title":   {NovelID: s.novel.ID, Rating: 3, Title: strings.Repeat("t", 201), Content: "ok"},
	}
	for field, in := range cases {
		_, err := s.svc.CreateReview(s.ctx, actorOf(s.reader), in)
		s.True(apperrors.IsKind(err, apperrors.KindValidation), field)
		s.Contains(apperrors.AsAppError(err).Fields, field)
	}
}

func (s *CommunitySuite) TestReviewOnHiddenNovel() {
	hidden := s.store.SeedNovel(s.T(), s.author.ID, nil)
	_, err := s.svc.CreateReview(s.ctx, actorOf(s.reader), ReviewInput{NovelID: hidden.ID, Rating: 3, Content: "ok"})
	s.ErrorIs(err, apperrors.ErrNovelNotFound)
}

func (s *CommunitySuite) TestUpdateReview() {
	r := s.review(s.reader, 5)

	rating := 1
	_, err := s.svc.UpdateReview(s.ctx, actorOf(s.other), r.ID, ReviewPatch{Rating: &rating})
	s.ErrorIs(err, apperrors.ErrReviewNotFound)

	updated, err := s.svc.UpdateReview(s.ctx, actorOf(s.reader), r.ID, ReviewPatch{Rating: &rating})
	s.Require().NoError(err)
	s.Equal(1, updated.Rating)

	novel, err := s.store.Novels.GetByID(s.ctx, s.novel.ID)
	s.Require().NoError(err)
	s.InDelta(1.0, novel.RatingAverage, 0.001)
}

func (s *CommunitySuite) TestToggleHelpful() {
	r := s.review(s.reader, 5)

	voted, helpful, err := s.svc.ToggleHelpful(s.ctx, actorOf(s.other), r.ID)
	s.Require().NoError(err)
	s.True(voted)
	s.Equal(1, helpful)

	voted, helpful, err = s.svc.ToggleHelpful(s.ctx, actorOf(s.other), r.ID)
	s.Require().NoError(err)
	s.False(voted)
	s.Equal(0, helpful)

	_, _, err = s.svc.ToggleHelpful(s.ctx, actorOf(s.other), "b6a3c7a4-0000-4000-8000-000000000000")
	s.ErrorIs(err, apperrors.ErrReviewNotFound)
}

func (s *CommunitySuite) TestListReviews() {
	s.review(s.reader, 5)
	s.review(s.other, 3)

	page, err := s.svc.ListReviews(s.ctx, entity.Anonymous(), s.novel.Slug, repository.NewPagination(1, 1))
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.Len(page.Items, 1)

	_, err = s.svc.ListReviews(s.ctx, entity.Anonymous(), "missing", repository.NewPagination(1, 10))
	s.ErrorIs(err, apperrors.ErrNovelNotFound)
}

func (s *CommunitySuite) TestCommentThreads() {
	root, err := s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: s.chapter.ID, Content: "First!"})
	s.Require().NoError(err)
	reply, err := s.svc.CreateComment(s.ctx, actorOf(s.author), CommentInput{ChapterID: s.chapter.ID, ParentID: root.ID, Content: "Thanks"})
	s.Require().NoError(err)

	_, err = s.svc.CreateComment(s.ctx, actorOf(s.other), CommentInput{ChapterID: s.chapter.ID, ParentID: reply.ID, Content: "nested"})
	s.Contains(apperrors.AsAppError(err).Fields, "parent_id")

	threads, err := s.svc.ListComments(s.ctx, entity.Anonymous(), s.chapter.ID)
	s.Require().NoError(err)
	s.Require().Len(threads, 1)
	s.Equal(root.ID, threads[0].ID)
	s.Require().Len(threads[0].Replies, 1)
	s.Equal(reply.ID, threads[0].Replies[0].ID)

	// 作者自己的回复不产生通知
	notes := s.inbox(s.author.ID)
	s.Require().Len(notes, 1)
	s.Equal(entity.NotificationNewComment, notes[0].Type)
	s.Require().NotNil(notes[0].Metadata.Comment)
	s.Equal("First!", notes[0].Metadata.Comment.Excerpt)
}

func (s *CommunitySuite) TestCommentValidation() {
	_, err := s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: s.chapter.ID, Content: " "})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	_, err = s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: s.chapter.ID, Content: strings.Repeat("x", 1001)})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	other := s.store.SeedChapter(s.T(), s.novel.ID, 2, strings.Repeat("word ", 150), func(c *entity.Chapter) {
		testutil.Approved(&c.Approval)
	})
	root, err := s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: other.ID, Content: "elsewhere"})
	s.Require().NoError(err)
	_, err = s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: s.chapter.ID, ParentID: root.ID, Content: "cross"})
	s.ErrorIs(err, apperrors.ErrCommentNotFound)
}

func (s *CommunitySuite) TestCommentOnPendingChapter() {
	pending := s.store.SeedChapter(s.T(), s.novel.ID, 2, strings.Repeat("word ", 150), nil)
	_, err := s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: pending.ID, Content: "early"})
	s.ErrorIs(err, apperrors.ErrChapterNotFound)

	_, err = s.svc.ListComments(s.ctx, actorOf(s.author), pending.ID)
	s.NoError(err)
}

func (s *CommunitySuite) TestLikeAndDelete() {
	c, err := s.svc.CreateComment(s.ctx, actorOf(s.reader), CommentInput{ChapterID: s.chapter.ID, Content: "nice"})
	s.Require().NoError(err)

	liked, likes, err := s.svc.ToggleLike(s.ctx, actorOf(s.other), c.ID)
	s.Require().NoError(err)
	s.True(liked)
	s.Equal(1, likes)

	err = s.svc.DeleteComment(s.ctx, actorOf(s.other), c.ID)
	s.True(apperrors.IsKind(err, apperrors.KindAuthorization))

	s.Require().NoError(s.svc.DeleteComment(s.ctx, actorOf(s.admin), c.ID))
	s.ErrorIs(s.svc.DeleteComment(s.ctx, actorOf(s.reader), c.ID), apperrors.ErrCommentNotFound)

	_, _, err = s.svc.ToggleLike(s.ctx, actorOf(s.other), c.ID)
	s.ErrorIs(err, apperrors.ErrCommentNotFound)
}
