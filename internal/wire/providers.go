// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/application/moderation"
	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/publisher"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/mail"
	"novel-platform-api/internal/infrastructure/messaging"
	"novel-platform-api/internal/infrastructure/persistence/postgres"
	"novel-platform-api/internal/infrastructure/persistence/redis"
	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/internal/interfaces/http/handler"
	"novel-platform-api/internal/interfaces/http/router"
	"novel-platform-api/pkg/utils"
)

// App api-server 运行所需的全部组件
type App struct {
	Router    *router.Router
	Hub       *realtime.Hub
	Relay     *realtime.RedisRelay
	Publisher *publisher.Publisher
}

// Worker notify-worker 运行所需的组件
type Worker struct {
	Consumer *messaging.Consumer
	Fanout   *notify.Fanout
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient *postgres.Client
	UserRepo *postgres.UserRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端，开启 auto_migrate 时同步表结构
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideChapterQueue 关闭 Stream 时新章节只做实时广播，不做订阅者扇出
func ProvideChapterQueue(cfg *config.Config, producer *messaging.Producer) notify.ChapterQueue {
	if !cfg.Messaging.RedisStream.Enabled {
		return nil
	}
	return producer
}

// ProvideJWTManager 提供 JWT 管理器
func ProvideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

// ProvideTokenTTL 提供 Token 有效期
func ProvideTokenTTL(cfg *config.Config) account.TokenTTL {
	return account.TokenTTL{
		Access:  cfg.Security.JWT.Expiration,
		Refresh: cfg.Security.JWT.RefreshExpiration,
	}
}

// ProvideMailer 提供邮件投递
func ProvideMailer(cfg *config.Config) mail.Mailer {
	return mail.NewLogMailer(cfg.Mail.From, cfg.Mail.Enabled)
}

// ProvideComposer 提供邮件模板
func ProvideComposer(cfg *config.Config) *mail.Composer {
	return mail.NewComposer(cfg.App.PublicURL)
}

// ProvideHub 提供本实例的实时推送中心
func ProvideHub(cfg *config.Config) (*realtime.Hub, func()) {
	hub := realtime.NewHub(realtime.Config{
		WriteWait:      cfg.Realtime.WriteWait,
		PongWait:       cfg.Realtime.PongWait,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
	})
	return hub, hub.Close
}

// ProvideRelay 未开启多实例转发时返回 nil
func ProvideRelay(cfg *config.Config, redisClient *redis.Client, hub *realtime.Hub) *realtime.RedisRelay {
	if !cfg.Realtime.RedisRelay {
		return nil
	}
	return realtime.NewRedisRelay(redisClient.Redis(), cfg.Realtime.RelayChannel, hub)
}

// ProvideRealtimePublisher 开启转发时经 Redis 发布，否则直接投递本地 Hub
func ProvideRealtimePublisher(hub *realtime.Hub, relay *realtime.RedisRelay) realtime.Publisher {
	if relay != nil {
		return relay
	}
	return hub
}

// ProvideWorkerPublisher notify-worker 不持有连接，推送一律经 Redis 转发给 api-server
func ProvideWorkerPublisher(cfg *config.Config, redisClient *redis.Client) realtime.Publisher {
	return realtime.NewRedisRelay(redisClient.Redis(), cfg.Realtime.RelayChannel, nil)
}

// ProvideModerationService 提供审核服务
func ProvideModerationService(
	cfg *config.Config,
	tx repository.Transactor,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	users repository.UserRepository,
	aggregator *stats.Aggregator,
	dispatcher *notify.Dispatcher,
	announcer *notify.Announcer,
	cache *redis.Cache,
) *moderation.Service {
	return moderation.NewService(tx, novels, chapters, users, aggregator, dispatcher, announcer, cache, cfg.Cache.AdminStatsTTL)
}

// ProvideScheduledPublisher 提供定时发布器
func ProvideScheduledPublisher(
	cfg *config.Config,
	tx repository.Transactor,
	chapters repository.ChapterRepository,
	novels repository.NovelRepository,
	aggregator *stats.Aggregator,
	announcer *notify.Announcer,
) *publisher.Publisher {
	return publisher.New(tx, chapters, novels, aggregator, announcer, cfg.Scheduler.PublishInterval, cfg.Scheduler.BatchSize)
}

// ProvideFanout 提供订阅者扇出处理器
func ProvideFanout(
	cfg *config.Config,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	dispatcher *notify.Dispatcher,
	mailer mail.Mailer,
	composer *mail.Composer,
) *notify.Fanout {
	return notify.NewFanout(subs, users, dispatcher, mailer, composer, cfg.Messaging.RedisStream.FanoutConcurrency)
}

// ProvideConsumer 提供新章节事件消费者
func ProvideConsumer(cfg *config.Config, redisClient *redis.Client) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamChapterPublished,
		Group:         messaging.ConsumerGroupNotifier,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
}

// ProvideAuthHandler 生产环境下 refresh Cookie 仅走 HTTPS
func ProvideAuthHandler(cfg *config.Config, accounts *account.Service) *handler.AuthHandler {
	return handler.NewAuthHandler(accounts, cfg.Security.JWT.RefreshExpiration, cfg.App.Env == "production")
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(pg, redisClient, cfg.App.Version)
}

// ProvideRealtimeHandler 提供 WebSocket 处理器
func ProvideRealtimeHandler(cfg *config.Config, hub *realtime.Hub, jwt *utils.JWTManager) *handler.RealtimeHandler {
	return handler.NewRealtimeHandler(hub, jwt, cfg.Realtime.AllowedOrigins)
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "notify-worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
