// Package testutil 测试辅助：SQLite 内存库与记录型替身
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/infrastructure/mail"
	"novel-platform-api/internal/infrastructure/persistence/postgres"
)

// Now 测试统一使用的 UTC 时间
var Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock 可推进的测试时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 创建时钟
func NewClock(at time.Time) *Clock {
	return &Clock{now: at}
}

// Now 当前时间
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 推进时间
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Store 基于 SQLite 内存库的仓储集合
type Store struct {
	Client        *postgres.Client
	Tx            *postgres.TxManager
	Novels        *postgres.NovelRepository
	Chapters      *postgres.ChapterRepository
	Users         *postgres.UserRepository
	Notifications *postgres.NotificationRepository
	Comments      *postgres.CommentRepository
	Reviews       *postgres.ReviewRepository
	Subscriptions *postgres.SubscriptionRepository
	Bookmarks     *postgres.BookmarkRepository

	seq atomic.Int64
}

// NewStore 创建已迁移的内存库
func NewStore(t testing.TB) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), postgres.GormConfig(&config.PostgresConfig{LogLevel: "silent"}))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := postgres.NewClientFromDB(db)
	require.NoError(t, client.Migrate(context.Background()))

	return &Store{
		Client:        client,
		Tx:            postgres.NewTxManager(client),
		Novels:        postgres.NewNovelRepository(client),
		Chapters:      postgres.NewChapterRepository(client),
		Users:         postgres.NewUserRepository(client),
		Notifications: postgres.NewNotificationRepository(client),
		Comments:      postgres.NewCommentRepository(client),
		Reviews:       postgres.NewReviewRepository(client),
		Subscriptions: postgres.NewSubscriptionRepository(client),
		Bookmarks:     postgres.NewBookmarkRepository(client),
	}
}

// SeedUser 创建用户，密码固定为 "password123"
func (s *Store) SeedUser(t testing.TB, role entity.UserRole) *entity.User {
	t.Helper()
	n := s.seq.Add(1)
	u := entity.NewUser(fmt.Sprintf("user%d", n), fmt.Sprintf("user%d@example.com", n), role)
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

// SeedNovel 创建小说，mutate 可调整字段（如审核状态）
func (s *Store) SeedNovel(t testing.TB, authorID string, mutate func(*entity.Novel)) *entity.Novel {
	t.Helper()
	n := s.seq.Add(1)
	novel := entity.NewNovel(authorID, fmt.Sprintf("Novel %d", n), "A synopsis that is comfortably longer than fifty characters in total.", Now)
	novel.Genres = entity.StringList{"fantasy"}
	if mutate != nil {
		mutate(novel)
	}
	require.NoError(t, s.Novels.Create(context.Background(), novel))
	return novel
}

// SeedChapter 创建章节
func (s *Store) SeedChapter(t testing.TB, novelID string, number int, content string, mutate func(*entity.Chapter)) *entity.Chapter {
	t.Helper()
	ch := entity.NewChapter(novelID, number, fmt.Sprintf("Chapter %d", number), content, nil, Now)
	if mutate != nil {
		mutate(ch)
	}
	require.NoError(t, s.Chapters.Create(context.Background(), ch))
	return ch
}

// Approved 把审核字段设为已通过
func Approved(a *entity.Approval) {
	moderator := "00000000-0000-0000-0000-000000000001"
	at := Now
	a.ApprovalStatus = entity.ApprovalApproved
	a.ApprovedBy = &moderator
	a.ApprovedAt = &at
}

// Published 推送记录
type Published struct {
	Channel string
	Event   string
	Data    interface{}
}

// RecordingPublisher 记录推送，可注入错误
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

// Publish 记录一次推送
func (p *RecordingPublisher) Publish(_ context.Context, channel, event string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, Published{Channel: channel, Event: event, Data: data})
	return nil
}

// On 返回指定频道上的推送
func (p *RecordingPublisher) On(channel string) []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Published
	for _, e := range p.events {
		if e.Channel == channel {
			out = append(out, e)
		}
	}
	return out
}

// All 全部推送
func (p *RecordingPublisher) All() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// RecordingMailer 记录邮件
type RecordingMailer struct {
	mu   sync.Mutex
	sent []*mail.Message
}

// Send 记录一封邮件
func (m *RecordingMailer) Send(_ context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent 已发送邮件
func (m *RecordingMailer) Sent() []*mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mail.Message(nil), m.sent...)
}
