package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-platform-api/pkg/logger"
)

func TestMessage_PayloadAndMetadata(t *testing.T) {
	event := &ChapterPublishedMessage{NovelID: "n1", ChapterID: "c1", ChapterNumber: 3, ChapterTitle: "Dawn"}
	msg, err := NewMessage("m1", TypeChapterPublished, event)
	require.NoError(t, err)

	msg.SetMetadata(MetaRequestID, "req-1")
	msg.SetMetadata(MetaTraceID, "")
	assert.Equal(t, "req-1", msg.GetMetadata(MetaRequestID))
	_, ok := msg.Metadata[MetaTraceID]
	assert.False(t, ok)

	var decoded ChapterPublishedMessage
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, *event, decoded)
}

func TestDecodeMessage(t *testing.T) {
	_, err := decodeMessage(map[string]interface{}{"other": "x"})
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = decodeMessage(map[string]interface{}{"data": "{not json"})
	assert.ErrorIs(t, err, ErrMalformedMessage)

	msg, err := decodeMessage(map[string]interface{}{"data": `{"id":"m1","type":"chapter_published","payload":{}}`})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, TypeChapterPublished, msg.Type)
}

func TestBackoffConfig_CalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(3))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(10))
}

func TestConsumer_Dispatch(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{Stream: StreamChapterPublished, Group: ConsumerGroupNotifier})
	boom := errors.New("boom")
	var seen string
	c.RegisterHandler(TypeChapterPublished, func(ctx context.Context, msg *Message) error {
		seen = msg.ID
		return boom
	})

	handled, err := c.dispatch(context.Background(), &Message{ID: "m1", Type: TypeChapterPublished})
	assert.True(t, handled)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "m1", seen)

	handled, err = c.dispatch(context.Background(), &Message{ID: "m2", Type: "unknown"})
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestMessageContext(t *testing.T) {
	msg := &Message{Metadata: map[string]string{MetaRequestID: "req-9", MetaTraceID: "trace-9"}}
	ctx := messageContext(context.Background(), msg)
	assert.Equal(t, "req-9", ctx.Value(logger.RequestIDKey))
	assert.Equal(t, "trace-9", ctx.Value(logger.TraceIDKey))
}

func TestStampContext(t *testing.T) {
	ctx := logger.WithContext(context.Background(), logger.RequestIDKey, "req-1")
	msg := &Message{}
	stampContext(ctx, msg)
	assert.Equal(t, "req-1", msg.GetMetadata(MetaRequestID))
	assert.Empty(t, msg.GetMetadata(MetaTraceID))
}

func TestStream_DLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:chapter:published", StreamChapterPublished.DLQStream())
}
