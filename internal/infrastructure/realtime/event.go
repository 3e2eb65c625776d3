// Package realtime 提供 WebSocket 实时推送（用户房间与小说房间）
package realtime

import (
	"context"
	"strings"
)

// 事件名称
const (
	EventConnected    = "connected"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventError        = "error"
	EventNotification = "notification"
	EventNewChapter   = "new_chapter"
)

const (
	userPrefix  = "user_"
	novelPrefix = "novel_"
)

// Frame 服务端下发的帧
type Frame struct {
	Event   string      `json:"event"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ClientFrame 客户端上行帧
type ClientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// Publisher 向频道推送事件
type Publisher interface {
	Publish(ctx context.Context, channel, event string, data interface{}) error
}

// UserChannel 用户私有频道
func UserChannel(userID string) string {
	return userPrefix + userID
}

// NovelChannel 小说广播频道
func NovelChannel(novelID string) string {
	return novelPrefix + novelID
}

// channelKind 返回频道类别（user / novel），用作指标标签
func channelKind(channel string) string {
	switch {
	case strings.HasPrefix(channel, userPrefix):
		return "user"
	case strings.HasPrefix(channel, novelPrefix):
		return "novel"
	default:
		return "unknown"
	}
}

// canJoin 会话只能加入自己的用户频道或任意小说频道
func canJoin(userID, channel string) bool {
	if id, ok := strings.CutPrefix(channel, novelPrefix); ok {
		return id != ""
	}
	return channel == UserChannel(userID)
}
