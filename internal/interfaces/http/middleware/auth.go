// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/interfaces/http/dto"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/utils"
)

// Context 键
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Auth 认证中间件，缺少或无效的 AccessToken 返回 401
func Auth(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			dto.Abort(c, apperrors.ErrTokenMissing)
			return
		}
		if err := authenticate(c, jwt, token); err != nil {
			dto.Abort(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth 携带有效 Token 时注入身份，否则按匿名继续
// 携带了无效 Token 仍返回 401，避免客户端误以为已登录
func OptionalAuth(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		if err := authenticate(c, jwt, token); err != nil {
			dto.Abort(c, err)
			return
		}
		c.Next()
	}
}

// CurrentActor 当前请求的身份，未登录时为匿名
func CurrentActor(c *gin.Context) entity.Actor {
	return entity.Actor{
		UserID: c.GetString(ContextUserID),
		Role:   entity.UserRole(c.GetString(ContextRole)),
	}
}

func authenticate(c *gin.Context, jwt *utils.JWTManager, token string) *apperrors.AppError {
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return apperrors.ErrTokenExpired
		}
		return apperrors.ErrTokenInvalid
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)

	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
	return nil
}

// bearerToken 解析 Authorization: Bearer <token>
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
