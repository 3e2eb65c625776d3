package moderation

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/messaging"
	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/internal/testutil"
	apperrors "novel-platform-api/pkg/errors"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	loads int
}

func (c *memoryCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if raw, ok := c.items[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.loads++
	c.items[key] = raw
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []*messaging.ChapterPublishedMessage
}

func (q *recordingQueue) PublishChapterPublished(_ context.Context, msg *messaging.ChapterPublishedMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return "1-0", nil
}

type ModerationSuite struct {
	suite.Suite
	ctx   context.Context
	store *testutil.Store
	pub   *testutil.RecordingPublisher
	queue *recordingQueue
	cache *memoryCache
	svc   *Service

	admin  *entity.User
	author *entity.User
}

func (s *ModerationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewStore(s.T())
	s.pub = &testutil.RecordingPublisher{}
	s.queue = &recordingQueue{}
	s.cache = &memoryCache{items: map[string][]byte{}}

	st := s.store
	dispatcher := notify.NewDispatcher(st.Notifications, s.pub)
	s.svc = NewService(
		st.Tx, st.Novels, st.Chapters, st.Users,
		stats.NewAggregator(st.Novels, st.Chapters, st.Reviews, st.Users),
		dispatcher,
		notify.NewAnnouncer(dispatcher, s.queue),
		s.cache, time.Minute,
	)
	s.svc.now = func() time.Time { return testutil.Now.Add(time.Hour) }

	s.admin = st.SeedUser(s.T(), entity.UserRoleAdmin)
	s.author = st.SeedUser(s.T(), entity.UserRoleAuthor)
}

func TestModerationSuite(t *testing.T) {
	suite.Run(t, new(ModerationSuite))
}

func (s *ModerationSuite) notifications(userID string) []*entity.Notification {
	page, err := s.store.Notifications.ListByRecipient(s.ctx, userID, false, repository.NewPagination(1, 50))
	s.Require().NoError(err)
	return page.Items
}

func (s *ModerationSuite) TestApproveNovel() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)

	got, err := s.svc.ApproveNovel(s.ctx, s.admin.ID, novel.ID)
	s.Require().NoError(err)
	s.Equal(entity.ApprovalApproved, got.ApprovalStatus)
	s.Require().NotNil(got.ApprovedBy)
	s.Equal(s.admin.ID, *got.ApprovedBy)
	s.Require().NotNil(got.ApprovedAt)
	s.True(got.ApprovedAt.Equal(testutil.Now.Add(time.Hour)))

	items := s.notifications(s.author.ID)
	s.Require().Len(items, 1)
	s.Equal(entity.NotificationNovelApproved, items[0].Type)
	s.Equal("/novel/"+novel.Slug, items[0].ActionURL)
	s.Require().NotNil(items[0].Metadata)
	s.Equal(novel.Title, items[0].Metadata.Moderation.NovelTitle)

	s.Len(s.pub.On(realtime.UserChannel(s.author.ID)), 1)
}

func (s *ModerationSuite) TestRejectNovelThenSecondDecisionConflicts() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)

	got, err := s.svc.RejectNovel(s.ctx, s.admin.ID, novel.ID, "  too short  ")
	s.Require().NoError(err)
	s.Equal(entity.ApprovalRejected, got.ApprovalStatus)
	s.Equal("too short", got.RejectionReason)

	items := s.notifications(s.author.ID)
	s.Require().Len(items, 1)
	s.Equal(entity.NotificationNovelRejected, items[0].Type)
	s.Equal("/dashboard", items[0].ActionURL)
	s.Contains(items[0].Message, "Reason: too short")

	_, err = s.svc.ApproveNovel(s.ctx, s.admin.ID, novel.ID)
	s.ErrorIs(err, apperrors.ErrAlreadyProcessed)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	_, err = s.svc.RejectNovel(s.ctx, s.admin.ID, novel.ID, "again")
	s.ErrorIs(err, apperrors.ErrAlreadyProcessed)

	stored, err := s.store.Novels.GetByID(s.ctx, novel.ID)
	s.Require().NoError(err)
	s.Equal(entity.ApprovalRejected, stored.ApprovalStatus)
	s.Equal("too short", stored.RejectionReason)
	s.Len(s.notifications(s.author.ID), 1)
}

func (s *ModerationSuite) TestRejectRequiresReason() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)

	_, err := s.svc.RejectNovel(s.ctx, s.admin.ID, novel.ID, "   ")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
	s.Equal("rejection reason is required", apperrors.AsAppError(err).Fields["reason"])

	stored, err := s.store.Novels.GetByID(s.ctx, novel.ID)
	s.Require().NoError(err)
	s.True(stored.IsPending())
}

func (s *ModerationSuite) TestUnknownIDsAreNotFound() {
	_, err := s.svc.ApproveNovel(s.ctx, s.admin.ID, "00000000-0000-0000-0000-00000000dead")
	s.ErrorIs(err, apperrors.ErrNovelNotFound)

	_, err = s.svc.ApproveChapter(s.ctx, s.admin.ID, "not-a-uuid")
	s.ErrorIs(err, apperrors.ErrChapterNotFound)
}

func (s *ModerationSuite) TestApproveChapterPublishesAndRecomputes() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	schedule := testutil.Now.Add(48 * time.Hour)
	ch := s.store.SeedChapter(s.T(), novel.ID, 1, strings.Repeat("word ", 150), func(c *entity.Chapter) {
		c.IsDraft = true
		c.Schedule = &schedule
		c.PublishedAt = nil
	})

	got, err := s.svc.ApproveChapter(s.ctx, s.admin.ID, ch.ID)
	s.Require().NoError(err)
	s.True(got.IsVisible())
	s.Require().NotNil(got.PublishedAt)

	stored, err := s.store.Novels.GetByID(s.ctx, novel.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.TotalChapters)
	s.Equal(150, stored.TotalWords)

	items := s.notifications(s.author.ID)
	s.Require().Len(items, 1)
	s.Equal(entity.NotificationChapterApproved, items[0].Type)
	s.Equal("/novel/"+novel.Slug+"/1", items[0].ActionURL)
	s.Equal(1, items[0].Metadata.Moderation.ChapterNumber)

	s.Len(s.pub.On(realtime.NovelChannel(novel.ID)), 1)
	s.Require().Len(s.queue.msgs, 1)
	s.Equal(ch.ID, s.queue.msgs[0].ChapterID)
}

func (s *ModerationSuite) TestRejectChapterDropsItFromTotals() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)
	ch := s.store.SeedChapter(s.T(), novel.ID, 1, strings.Repeat("word ", 120), nil)
	_, err := stats.NewAggregator(s.store.Novels, s.store.Chapters, s.store.Reviews, s.store.Users).RecomputeNovelChapters(s.ctx, novel.ID)
	s.Require().NoError(err)

	got, err := s.svc.RejectChapter(s.ctx, s.admin.ID, ch.ID, "plagiarised")
	s.Require().NoError(err)
	s.Equal(entity.ApprovalRejected, got.ApprovalStatus)

	stored, err := s.store.Novels.GetByID(s.ctx, novel.ID)
	s.Require().NoError(err)
	s.Zero(stored.TotalChapters)
	s.Zero(stored.TotalWords)

	items := s.notifications(s.author.ID)
	s.Require().Len(items, 1)
	s.Contains(items[0].Message, "Reason: plagiarised")
	s.Empty(s.queue.msgs)

	_, err = s.svc.ApproveChapter(s.ctx, s.admin.ID, ch.ID)
	s.ErrorIs(err, apperrors.ErrAlreadyProcessed)
}

func (s *ModerationSuite) TestConcurrentApprovalsOneWins() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.ApproveNovel(s.ctx, s.admin.ID, novel.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperrors.IsKind(err, apperrors.KindConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(workers-1, conflicts)
	s.Len(s.notifications(s.author.ID), 1)
}

func (s *ModerationSuite) TestPendingQueues() {
	first := s.store.SeedNovel(s.T(), s.author.ID, nil)
	s.store.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	ch := s.store.SeedChapter(s.T(), first.ID, 1, "content", nil)

	novels, err := s.svc.PendingNovels(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(novels, 1)
	s.Equal(first.ID, novels[0].ID)

	chapters, err := s.svc.PendingChapters(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(chapters, 1)
	s.Equal(ch.ID, chapters[0].ID)
	s.Equal(first.Title, chapters[0].NovelTitle)
}

func (s *ModerationSuite) TestDashboardIsCachedAndInvalidated() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, nil)
	s.store.SeedChapter(s.T(), novel.ID, 1, "content", nil)

	got, err := s.svc.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(entity.AdminStats{PendingNovels: 1, PendingChapters: 1, TotalUsers: 2}, *got)

	_, err = s.svc.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, s.cache.loads)

	_, err = s.svc.ApproveNovel(s.ctx, s.admin.ID, novel.ID)
	s.Require().NoError(err)

	got, err = s.svc.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), got.PendingNovels)
	s.Equal(int64(1), got.TotalNovels)
	s.Equal(2, s.cache.loads)
}

func TestDashboard_WithoutCache(t *testing.T) {
	st := testutil.NewStore(t)
	dispatcher := notify.NewDispatcher(st.Notifications, &testutil.RecordingPublisher{})
	svc := NewService(st.Tx, st.Novels, st.Chapters, st.Users,
		stats.NewAggregator(st.Novels, st.Chapters, st.Reviews, st.Users),
		dispatcher, nil, nil, 0)

	st.SeedUser(t, entity.UserRoleReader)
	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalUsers)
}
