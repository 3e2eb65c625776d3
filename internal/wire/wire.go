//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/application/content"
	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/persistence/postgres"
	"novel-platform-api/internal/infrastructure/persistence/redis"
	"novel-platform-api/internal/interfaces/http/handler"
	"novel-platform-api/internal/interfaces/http/middleware"
	"novel-platform-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 api-server
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		RealtimeSet,
		ServiceSet,
		RouterSet,
		ProvideModerationService,
		ProvideScheduledPublisher,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 notify-worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		ProvideRedisClient,
		ProvideWorkerPublisher,
		ProvideMailer,
		ProvideComposer,
		notify.NewDispatcher,
		ProvideFanout,
		ProvideConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewUserRepository,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewNovelRepository,
	postgres.NewChapterRepository,
	postgres.NewUserRepository,
	postgres.NewNotificationRepository,
	postgres.NewCommentRepository,
	postgres.NewReviewRepository,
	postgres.NewSubscriptionRepository,
	postgres.NewBookmarkRepository,
)

// RepoSet 具体实现与接口绑定
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.NovelRepository), new(*postgres.NovelRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.NotificationRepository), new(*postgres.NotificationRepository)),
	wire.Bind(new(repository.CommentRepository), new(*postgres.CommentRepository)),
	wire.Bind(new(repository.ReviewRepository), new(*postgres.ReviewRepository)),
	wire.Bind(new(repository.SubscriptionRepository), new(*postgres.SubscriptionRepository)),
	wire.Bind(new(repository.BookmarkRepository), new(*postgres.BookmarkRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	ProvideChapterQueue,
)

// RealtimeSet 实时推送提供者集合
var RealtimeSet = wire.NewSet(
	ProvideHub,
	ProvideRelay,
	ProvideRealtimePublisher,
)

// ServiceSet 应用服务提供者集合
var ServiceSet = wire.NewSet(
	ProvideJWTManager,
	ProvideTokenTTL,
	ProvideMailer,
	ProvideComposer,
	stats.NewAggregator,
	notify.NewDispatcher,
	notify.NewAnnouncer,
	notify.NewInbox,
	content.NewService,
	community.NewService,
	account.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthHandler,
	ProvideHealthHandler,
	ProvideRealtimeHandler,
	handler.NewNovelHandler,
	handler.NewChapterHandler,
	handler.NewCommunityHandler,
	handler.NewAdminHandler,
	handler.NewNotificationHandler,
	handler.NewUserHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
