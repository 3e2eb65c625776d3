// Package messaging 提供基于 Redis Streams 的消息队列实现
package messaging

import (
	"encoding/json"
	"errors"
	"time"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// 元数据键
const (
	MetaRequestID = "request_id"
	MetaTraceID   = "trace_id"
)

// ErrMalformedMessage 流条目无法解析为 Message
var ErrMalformedMessage = errors.New("malformed stream message")

// NewMessage 创建新消息
func NewMessage(id, msgType string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SetMetadata 设置元数据，空值忽略
func (m *Message) SetMetadata(key, value string) {
	if value == "" {
		return
	}
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 获取元数据
func (m *Message) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// decodeMessage 从流条目的 data 字段还原消息
func decodeMessage(values map[string]interface{}) (*Message, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return nil, ErrMalformedMessage
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	return &msg, nil
}

// Stream 流定义
type Stream string

const (
	// StreamChapterPublished 章节发布事件，由通知 worker 扇出给订阅者
	StreamChapterPublished Stream = "stream:chapter:published"
)

// DLQStream 获取对应的死信队列流名称
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组定义
type ConsumerGroup string

const (
	ConsumerGroupNotifier ConsumerGroup = "cg-notifier"
)

// 消息类型
const (
	TypeChapterPublished = "chapter_published"
)

// ChapterPublishedMessage 章节发布消息
type ChapterPublishedMessage struct {
	NovelID       string    `json:"novel_id"`
	NovelTitle    string    `json:"novel_title"`
	NovelSlug     string    `json:"novel_slug"`
	AuthorID      string    `json:"author_id"`
	ChapterID     string    `json:"chapter_id"`
	ChapterNumber int       `json:"chapter_number"`
	ChapterTitle  string    `json:"chapter_title"`
	PublishedAt   time.Time `json:"published_at"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避配置
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// CalculateBackoff 计算第 retryCount 次重试前的等待时间
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	backoff := c.Initial
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff > c.Max {
			backoff = c.Max
			break
		}
	}
	return backoff
}
