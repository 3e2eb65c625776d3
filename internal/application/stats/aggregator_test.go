package stats

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/testutil"
)

func newAggregator(s *testutil.Store) *Aggregator {
	return NewAggregator(s.Novels, s.Chapters, s.Reviews, s.Users)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestRecomputeNovelChapters_CountsPublishedNonRejected(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	agg := newAggregator(s)

	author := s.SeedUser(t, entity.UserRoleAuthor)
	novel := s.SeedNovel(t, author.ID, nil)
	s.SeedChapter(t, novel.ID, 1, words(120), nil)
	s.SeedChapter(t, novel.ID, 2, words(80), func(c *entity.Chapter) { testutil.Approved(&c.Approval) })
	s.SeedChapter(t, novel.ID, 3, words(500), func(c *entity.Chapter) { c.ApprovalStatus = entity.ApprovalRejected })
	s.SeedChapter(t, novel.ID, 4, words(40), func(c *entity.Chapter) {
		c.IsDraft = true
		c.PublishedAt = nil
	})

	totals, err := agg.RecomputeNovelChapters(ctx, novel.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChapterTotals{Chapters: 2, Words: 200}, totals)

	again, err := agg.RecomputeNovelChapters(ctx, novel.ID)
	require.NoError(t, err)
	assert.Equal(t, totals, again)

	stored, err := s.Novels.GetByID(ctx, novel.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalChapters)
	assert.Equal(t, 200, stored.TotalWords)
}

func TestRecomputeNovelChapters_EmptyNovel(t *testing.T) {
	s := testutil.NewStore(t)
	author := s.SeedUser(t, entity.UserRoleAuthor)
	novel := s.SeedNovel(t, author.ID, func(n *entity.Novel) {
		n.TotalChapters = 7
		n.TotalWords = 900
	})

	totals, err := newAggregator(s).RecomputeNovelChapters(context.Background(), novel.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.Chapters)
	assert.Zero(t, totals.Words)
}

func TestRecomputeNovelRating(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	agg := newAggregator(s)

	author := s.SeedUser(t, entity.UserRoleAuthor)
	novel := s.SeedNovel(t, author.ID, nil)

	summary, err := agg.RecomputeNovelRating(ctx, novel.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RatingSummary{}, summary)

	for _, rating := range []int{5, 4, 3} {
		reader := s.SeedUser(t, entity.UserRoleReader)
		require.NoError(t, s.Reviews.Create(ctx, &entity.Review{NovelID: novel.ID, UserID: reader.ID, Rating: rating, Content: "ok"}))
	}

	summary, err = agg.RecomputeNovelRating(ctx, novel.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 4.0, summary.Average, 1e-9)

	stored, err := s.Novels.GetByID(ctx, novel.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, stored.RatingAverage, 1e-9)
	assert.Equal(t, 3, stored.RatingCount)
}

func TestRefreshAuthorBadges(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	author := s.SeedUser(t, entity.UserRoleAuthor)
	for i := 0; i < 5; i++ {
		s.SeedNovel(t, author.ID, func(n *entity.Novel) {
			n.Views = 3000
			n.Status = entity.NovelStatusCompleted
		})
	}

	badges, err := newAggregator(s).RefreshAuthorBadges(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StringList{entity.Badge10KViews, entity.BadgeActiveWriter, entity.BadgeFinisher}, badges)

	stored, err := s.Users.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, badges, stored.Badges)
}
