package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/internal/interfaces/http/dto"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/utils"
)

// RealtimeHandler WebSocket 接入
type RealtimeHandler struct {
	hub      *realtime.Hub
	jwt      *utils.JWTManager
	upgrader *websocket.Upgrader
}

// NewRealtimeHandler 创建实时推送处理器
func NewRealtimeHandler(hub *realtime.Hub, jwt *utils.JWTManager, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt, upgrader: realtime.NewUpgrader(allowedOrigins)}
}

// Connect 建立实时连接
// 浏览器无法设置请求头，AccessToken 通过 ?token= 传递；升级前完成认证
// @Router /v1/ws [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			token = strings.TrimSpace(header[7:])
		}
	}
	if token == "" {
		dto.Abort(c, apperrors.ErrTokenMissing)
		return
	}
	claims, err := h.jwt.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			dto.Abort(c, apperrors.ErrTokenExpired)
			return
		}
		dto.Abort(c, apperrors.ErrTokenInvalid)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写入错误响应
		logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}
	h.hub.Serve(c.Request.Context(), conn, claims.UserID)
}
