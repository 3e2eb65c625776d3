package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(&config.PostgresConfig{LogLevel: "silent"}))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := NewClientFromDB(db)
	require.NoError(t, client.Migrate(context.Background()))
	return client
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seedNovel(t *testing.T, c *Client, authorID string) *entity.Novel {
	t.Helper()
	n := entity.NewNovel(authorID, "The Lost Kingdom", "A synopsis long enough.", testNow)
	n.Slug = n.Slug + "-" + uuid.NewString()[:8]
	n.Genres = entity.StringList{"fantasy", "adventure"}
	require.NoError(t, NewNovelRepository(c).Create(context.Background(), n))
	return n
}

func seedChapter(t *testing.T, c *Client, novelID string, number int, content string, mutate func(*entity.Chapter)) *entity.Chapter {
	t.Helper()
	ch := entity.NewChapter(novelID, number, "Chapter title", content, nil, testNow)
	if mutate != nil {
		mutate(ch)
	}
	require.NoError(t, NewChapterRepository(c).Create(context.Background(), ch))
	return ch
}

func TestNovelRepository_RoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewNovelRepository(c)

	n := seedNovel(t, c, uuid.NewString())
	got, err := repo.GetBySlug(ctx, n.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StringList{"fantasy", "adventure"}, got.Genres)
	assert.Equal(t, entity.ApprovalPending, got.ApprovalStatus)

	missing, err := repo.GetByID(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := entity.NewNovel(n.AuthorID, "x", "y", testNow)
	dup.Slug = n.Slug
	assert.ErrorIs(t, repo.Create(ctx, dup), repository.ErrConflict)
}

func TestNovelRepository_TransitionApproval(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewNovelRepository(c)
	n := seedNovel(t, c, uuid.NewString())
	admin := uuid.NewString()

	err := repo.TransitionApproval(ctx, n.ID, repository.ApprovalDecision{
		To: entity.ApprovalRejected, ModeratorID: admin, Reason: "too short", At: testNow,
	})
	require.NoError(t, err)

	err = repo.TransitionApproval(ctx, n.ID, repository.ApprovalDecision{
		To: entity.ApprovalApproved, ModeratorID: admin, At: testNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalRejected, got.ApprovalStatus)
	assert.Equal(t, "too short", got.RejectionReason)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, admin, *got.ApprovedBy)

	err = repo.TransitionApproval(ctx, uuid.NewString(), repository.ApprovalDecision{To: entity.ApprovalApproved, At: testNow})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChapterRepository_ConcurrentApprovalSingleWinner(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	n := seedNovel(t, c, uuid.NewString())
	ch := seedChapter(t, c, n.ID, 1, "some words here", nil)
	repo := NewChapterRepository(c)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.TransitionApproval(ctx, ch.ID, repository.ApprovalDecision{
				To: entity.ApprovalApproved, ModeratorID: uuid.NewString(), At: testNow,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestChapterRepository_SumCountedAndNumbers(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	n := seedNovel(t, c, uuid.NewString())
	repo := NewChapterRepository(c)

	seedChapter(t, c, n.ID, 1, "one two three", nil)
	seedChapter(t, c, n.ID, 2, "four five", func(ch *entity.Chapter) { ch.ApprovalStatus = entity.ApprovalApproved })
	seedChapter(t, c, n.ID, 3, "rejected words are ignored", func(ch *entity.Chapter) { ch.ApprovalStatus = entity.ApprovalRejected })
	seedChapter(t, c, n.ID, 5, "draft not counted", func(ch *entity.Chapter) {
		future := testNow.Add(time.Hour)
		ch.IsDraft = true
		ch.Schedule = &future
		ch.PublishedAt = nil
	})

	totals, err := repo.SumCounted(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChapterTotals{Chapters: 2, Words: 5}, totals)

	again, err := repo.SumCounted(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, totals, again)

	next, err := repo.NextNumber(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, next)

	first, err := repo.NextNumber(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	counts, err := repo.CountByNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalCounts{Pending: 2, Approved: 1, Rejected: 1, Drafts: 1}, counts)

	visible, err := repo.ListByNovel(ctx, n.ID, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, 2, visible[0].Number)
	assert.Empty(t, visible[0].Content)
}

func TestChapterRepository_ScheduledPublish(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	n := seedNovel(t, c, uuid.NewString())
	repo := NewChapterRepository(c)

	due := testNow.Add(-time.Minute)
	later := testNow.Add(time.Hour)
	dueCh := seedChapter(t, c, n.ID, 1, "a b", func(ch *entity.Chapter) {
		ch.IsDraft, ch.Schedule, ch.PublishedAt = true, &due, nil
	})
	seedChapter(t, c, n.ID, 2, "c d", func(ch *entity.Chapter) {
		ch.IsDraft, ch.Schedule, ch.PublishedAt = true, &later, nil
	})

	list, err := repo.ListDueScheduled(ctx, testNow, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dueCh.ID, list[0].ID)

	ok, err := repo.MarkPublished(ctx, dueCh.ID, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPublished(ctx, dueCh.ID, testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, dueCh.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDraft)
	assert.Nil(t, got.Schedule)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(testNow))
}

func TestNovelRepository_DeleteCascades(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	n := seedNovel(t, c, uuid.NewString())
	ch := seedChapter(t, c, n.ID, 1, "words", nil)
	reader := uuid.NewString()

	comment := &entity.Comment{ChapterID: ch.ID, UserID: reader, Content: "nice"}
	require.NoError(t, NewCommentRepository(c).Create(ctx, comment))
	_, _, err := NewCommentRepository(c).ToggleLike(ctx, comment.ID, reader)
	require.NoError(t, err)
	require.NoError(t, NewReviewRepository(c).Create(ctx, &entity.Review{NovelID: n.ID, UserID: reader, Rating: 4, Content: "good"}))
	require.NoError(t, NewBookmarkRepository(c).Upsert(ctx, &entity.Bookmark{UserID: reader, NovelID: n.ID}))

	require.NoError(t, NewNovelRepository(c).Delete(ctx, n.ID))
	assert.ErrorIs(t, NewNovelRepository(c).Delete(ctx, n.ID), repository.ErrNotFound)

	for _, model := range []interface{}{&entity.Chapter{}, &entity.Comment{}, &entity.CommentLike{}, &entity.Review{}, &entity.Bookmark{}} {
		var count int64
		require.NoError(t, c.DB().Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
}

func TestReviewRepository_UniqueAndSummary(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewReviewRepository(c)
	n := seedNovel(t, c, uuid.NewString())
	u1, u2 := uuid.NewString(), uuid.NewString()

	require.NoError(t, repo.Create(ctx, &entity.Review{NovelID: n.ID, UserID: u1, Rating: 5, Content: "great"}))
	require.NoError(t, repo.Create(ctx, &entity.Review{NovelID: n.ID, UserID: u2, Rating: 2, Content: "meh"}))
	err := repo.Create(ctx, &entity.Review{NovelID: n.ID, UserID: u1, Rating: 1, Content: "again"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	sum, err := repo.Summary(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 3.5, sum.Average, 1e-9)

	empty, err := repo.Summary(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, entity.RatingSummary{}, empty)

	rv, err := repo.GetByNovelAndUser(ctx, n.ID, u1)
	require.NoError(t, err)
	voted, helpful, err := repo.ToggleHelpful(ctx, rv.ID, u2)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, helpful)
	voted, helpful, err = repo.ToggleHelpful(ctx, rv.ID, u2)
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Equal(t, 0, helpful)
}

func TestNotificationRepository_RecipientScoped(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewNotificationRepository(c)
	owner, other := uuid.NewString(), uuid.NewString()

	var ids []string
	for i := 0; i < 3; i++ {
		n := &entity.Notification{
			RecipientID: owner,
			Type:        entity.NotificationNovelApproved,
			Title:       "Novel approved",
			Message:     "ok",
			Metadata:    &entity.NotificationMetadata{Moderation: &entity.ModerationMeta{NovelTitle: "Book"}},
			CreatedAt:   testNow.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	page, err := repo.ListByRecipient(ctx, owner, false, repository.NewPagination(1, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	require.NotNil(t, page.Items[0].Metadata)
	assert.Equal(t, "Book", page.Items[0].Metadata.Moderation.NovelTitle)

	assert.ErrorIs(t, repo.SetRead(ctx, ids[0], other, true), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ids[0], other), repository.ErrNotFound)

	require.NoError(t, repo.SetRead(ctx, ids[0], owner, true))
	unread, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, repo.SetRead(ctx, ids[0], owner, false))
	updated, err := repo.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	require.NoError(t, repo.Delete(ctx, ids[1], owner))
	unread, err = repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUserRepository_JSONColumns(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewUserRepository(c)

	u := entity.NewUser("alice", "Alice@Example.com", entity.UserRoleAuthor)
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, repo.Create(ctx, u))

	dup := entity.NewUser("alice", "other@example.com", entity.UserRoleReader)
	dup.PasswordHash = "x"
	assert.ErrorIs(t, repo.Create(ctx, dup), repository.ErrConflict)

	prefs := entity.Preferences{Theme: entity.ThemeDark, FontSize: 20, LineHeight: 2}
	require.NoError(t, repo.UpdatePreferences(ctx, u.ID, prefs))

	history := []entity.ReadingEntry{{NovelID: "n1", ChapterID: "c1", ChapterNumber: 3, ReadAt: testNow}}
	require.NoError(t, repo.UpdateReadingHistory(ctx, u.ID, history))
	require.NoError(t, repo.UpdateBadges(ctx, u.ID, entity.StringList{entity.BadgeFinisher}))

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, prefs, got.Preferences)
	require.Len(t, got.ReadingHistory, 1)
	assert.Equal(t, 3, got.ReadingHistory[0].ChapterNumber)
	assert.Equal(t, entity.StringList{entity.BadgeFinisher}, got.Badges)

	assert.ErrorIs(t, repo.UpdateBadges(ctx, uuid.NewString(), nil), repository.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubscriptionAndBookmarkRepositories(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(c)
	marks := NewBookmarkRepository(c)
	user, author, novel := uuid.NewString(), uuid.NewString(), uuid.NewString()

	require.NoError(t, subs.Create(ctx, &entity.Subscription{UserID: user, TargetType: entity.SubscribeUser, TargetID: author}))
	err := subs.Create(ctx, &entity.Subscription{UserID: user, TargetType: entity.SubscribeUser, TargetID: author})
	assert.ErrorIs(t, err, repository.ErrConflict)

	ids, err := subs.ListSubscriberIDs(ctx, entity.SubscribeUser, author)
	require.NoError(t, err)
	assert.Equal(t, []string{user}, ids)

	require.NoError(t, subs.Delete(ctx, user, entity.SubscribeUser, author))
	assert.ErrorIs(t, subs.Delete(ctx, user, entity.SubscribeUser, author), repository.ErrNotFound)

	ch1, ch2 := uuid.NewString(), uuid.NewString()
	require.NoError(t, marks.Upsert(ctx, &entity.Bookmark{UserID: user, NovelID: novel, ChapterID: &ch1}))
	require.NoError(t, marks.Upsert(ctx, &entity.Bookmark{UserID: user, NovelID: novel, ChapterID: &ch2}))
	list, err := marks.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ChapterID)
	assert.Equal(t, ch2, *list[0].ChapterID)
}

func TestNovelRepository_UpdateKeepsApproval(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewNovelRepository(c)

	n := seedNovel(t, c, uuid.NewString())
	stale := *n

	require.NoError(t, repo.TransitionApproval(ctx, n.ID, repository.ApprovalDecision{
		To: entity.ApprovalApproved, ModeratorID: uuid.NewString(), At: testNow,
	}))

	stale.Title = "The Found Kingdom"
	stale.Genres = entity.StringList{"mystery"}
	require.NoError(t, repo.Update(ctx, &stale))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Found Kingdom", got.Title)
	assert.Equal(t, entity.StringList{"mystery"}, got.Genres)
	assert.Equal(t, entity.ApprovalApproved, got.ApprovalStatus)

	ghost := entity.NewNovel(n.AuthorID, "ghost", "ghost", testNow)
	ghost.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Update(ctx, ghost), repository.ErrNotFound)
}
