package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/tracer"
)

// relayEnvelope 跨实例转发的事件
type relayEnvelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RedisRelay 多实例部署时经 Redis Pub/Sub 转发事件，每个实例投递给本地 Hub
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Hub
}

// NewRedisRelay 创建转发器
func NewRedisRelay(client *redis.Client, channel string, local *Hub) *RedisRelay {
	if channel == "" {
		channel = "realtime:events"
	}
	return &RedisRelay{client: client, channel: channel, local: local}
}

// Publish 把事件发布到 Redis，由所有实例的 Run 循环投递
func (r *RedisRelay) Publish(ctx context.Context, channel, event string, data interface{}) error {
	ctx, span := tracer.Start(ctx, "realtime.RedisRelay.Publish",
		trace.WithAttributes(
			attribute.String("realtime.channel", channel),
			attribute.String("realtime.event", event),
		))
	defer span.End()

	payload, err := encodeEnvelope(channel, event, data)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to relay realtime event: %w", err)
	}
	return nil
}

// Run 订阅转发频道直到 ctx 取消
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe realtime relay: %w", err)
	}
	logger.Info(ctx, "realtime relay subscribed", "channel", r.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Warn(ctx, "discarding malformed relay payload", "error", err.Error())
		return
	}
	_ = r.local.Publish(ctx, env.Channel, env.Event, env.Data)
}

func encodeEnvelope(channel, event string, data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal realtime payload: %w", err)
	}
	out, err := json.Marshal(relayEnvelope{Channel: channel, Event: event, Data: raw})
	if err != nil {
		return "", fmt.Errorf("failed to marshal relay envelope: %w", err)
	}
	return string(out), nil
}
