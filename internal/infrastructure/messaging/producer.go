package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/tracer"
)

var otelTracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := otelTracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishChapterPublished 发布章节发布事件
func (p *Producer) PublishChapterPublished(ctx context.Context, event *ChapterPublishedMessage) (string, error) {
	msg, err := NewMessage(uuid.NewString(), TypeChapterPublished, event)
	if err != nil {
		return "", err
	}
	stampContext(ctx, msg)
	return p.Publish(ctx, StreamChapterPublished, msg)
}

// stampContext 把请求链路信息带入消息，消费端据此还原日志上下文
func stampContext(ctx context.Context, msg *Message) {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.SetMetadata(MetaRequestID, reqID)
	}
	msg.SetMetadata(MetaTraceID, tracer.TraceID(ctx))
}
