package realtime

import (
	"context"
	"sync"
	"time"

	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/metrics"
)

// Config 实时推送配置
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (c Config) withDefaults() Config {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512
	}
	return c
}

func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// Hub 维护频道到会话的映射，进程内投递
type Hub struct {
	cfg Config

	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
}

// NewHub 创建 Hub
func NewHub(cfg Config) *Hub {
	return &Hub{
		cfg:      cfg.withDefaults(),
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
	}
}

// Publish 向频道内所有会话推送事件，写失败的连接被移除
func (h *Hub) Publish(ctx context.Context, channel, event string, data interface{}) error {
	kind := channelKind(channel)

	h.mu.RLock()
	members := h.rooms[channel]
	targets := make([]*Session, 0, len(members))
	for s := range members {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		metrics.RealtimePushes.WithLabelValues(kind, "no_listeners").Inc()
		return nil
	}

	frame := Frame{Event: event, Channel: channel, Data: data}
	for _, s := range targets {
		if err := s.send(frame); err != nil {
			logger.Warn(ctx, "dropping realtime connection after failed write",
				"channel", channel,
				"user_id", s.userID,
				"error", err.Error(),
			)
			metrics.RealtimePushes.WithLabelValues(kind, "dropped").Inc()
			h.unregister(s)
			continue
		}
		metrics.RealtimePushes.WithLabelValues(kind, "delivered").Inc()
	}
	return nil
}

// Members 返回频道当前的会话数
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

// Connections 返回当前连接数
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close 关闭所有连接
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		h.unregister(s)
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = make(map[string]struct{})
	h.joinLocked(s, UserChannel(s.userID))
	metrics.RealtimeConnections.Inc()
}

// unregister 移出所有频道并关闭连接，可重复调用
func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	channels, ok := h.sessions[s]
	if ok {
		for channel := range channels {
			h.leaveLocked(s, channel)
		}
		delete(h.sessions, s)
	}
	h.mu.Unlock()

	if ok {
		metrics.RealtimeConnections.Dec()
		_ = s.conn.Close()
	}
}

func (h *Hub) join(s *Session, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok {
		return false
	}
	h.joinLocked(s, channel)
	return true
}

func (h *Hub) leave(s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, channel)
}

func (h *Hub) joinLocked(s *Session, channel string) {
	if h.rooms[channel] == nil {
		h.rooms[channel] = make(map[*Session]struct{})
	}
	h.rooms[channel][s] = struct{}{}
	h.sessions[s][channel] = struct{}{}
}

func (h *Hub) leaveLocked(s *Session, channel string) {
	if members, ok := h.rooms[channel]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, channel)
		}
	}
	if channels, ok := h.sessions[s]; ok {
		delete(channels, channel)
	}
}
