package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"novel-platform-api/pkg/logger"
)

// Conn 会话使用的连接能力，*websocket.Conn 满足该接口
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session 单个 WebSocket 连接
type Session struct {
	hub    *Hub
	conn   Conn
	userID string

	writeMu sync.Mutex
}

// send 串行写入，gorilla 连接不支持并发写
func (s *Session) send(frame Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(frame)
}

func (s *Session) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// Serve 接管已认证用户的连接，阻塞直到连接关闭
// 会话自动加入 user_<id> 频道，客户端可通过 join/leave 帧管理小说频道
func (h *Hub) Serve(ctx context.Context, conn Conn, userID string) {
	s := &Session{hub: h, conn: conn, userID: userID}
	h.register(s)
	defer h.unregister(s)

	ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
	logger.Debug(ctx, "realtime session opened")

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait)); err != nil {
		logger.Warn(ctx, "failed to set initial read deadline", "error", err.Error())
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	if err := s.send(Frame{Event: EventConnected, Channel: UserChannel(userID)}); err != nil {
		logger.Warn(ctx, "failed to send welcome frame", "error", err.Error())
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.keepAlive(ctx)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug(ctx, "realtime session read error", "error", err.Error())
			}
			break
		}
		if err := s.handle(payload); err != nil {
			logger.Debug(ctx, "realtime session write error", "error", err.Error())
			break
		}
	}
	logger.Debug(ctx, "realtime session closed")
}

func (s *Session) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(s.hub.cfg.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		}
	}
}

// handle 处理客户端帧，只有写失败才返回错误
func (s *Session) handle(payload []byte) error {
	var in ClientFrame
	if err := json.Unmarshal(payload, &in); err != nil {
		return s.send(Frame{Event: EventError, Data: "invalid frame"})
	}

	switch in.Action {
	case "join":
		if !canJoin(s.userID, in.Channel) {
			return s.send(Frame{Event: EventError, Channel: in.Channel, Data: "channel not allowed"})
		}
		if !s.hub.join(s, in.Channel) {
			return nil
		}
		return s.send(Frame{Event: EventJoined, Channel: in.Channel})
	case "leave":
		if in.Channel == UserChannel(s.userID) {
			return s.send(Frame{Event: EventError, Channel: in.Channel, Data: "cannot leave own channel"})
		}
		s.hub.leave(s, in.Channel)
		return s.send(Frame{Event: EventLeft, Channel: in.Channel})
	default:
		return s.send(Frame{Event: EventError, Data: "unknown action"})
	}
}

// NewUpgrader 创建校验 Origin 的 Upgrader，未配置来源时放行全部
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || origin == allowed {
					return true
				}
			}
			return false
		},
	}
}
