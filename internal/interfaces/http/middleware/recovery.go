package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/interfaces/http/dto"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
)

// Recovery Panic 恢复中间件
//
// 响应已写出（包括已升级为 websocket 的连接）时只中止链路，不再写错误体。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"route", c.FullPath(),
				"method", c.Request.Method,
				"user_id", CurrentActor(c).UserID,
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.Abort(c, apperrors.ErrInternalError)
		}()

		c.Next()
	}
}
