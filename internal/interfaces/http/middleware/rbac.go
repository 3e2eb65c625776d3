package middleware

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/interfaces/http/dto"
	apperrors "novel-platform-api/pkg/errors"
)

// Permission 权限类型
type Permission string

// 权限常量定义
const (
	PermRead      Permission = "content:read"
	PermWrite     Permission = "content:write"
	PermCommunity Permission = "community:write"
	PermModerate  Permission = "admin:moderate"
)

// rolePermissions 角色-权限映射表
var rolePermissions = map[entity.UserRole][]Permission{
	entity.UserRoleAdmin:  {PermRead, PermWrite, PermCommunity, PermModerate},
	entity.UserRoleAuthor: {PermRead, PermWrite, PermCommunity},
	entity.UserRoleReader: {PermRead, PermCommunity},
}

// HasPermission 检查角色是否具有指定权限
func HasPermission(role entity.UserRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// RequirePermission 权限检查中间件，需在 Auth 之后使用
func RequirePermission(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.UserRole(c.GetString(ContextRole))
		if role == "" {
			dto.Abort(c, apperrors.ErrUnauthorized)
			return
		}
		if !HasPermission(role, perm) {
			dto.Abort(c, apperrors.Forbidden("permission denied"))
			return
		}
		c.Next()
	}
}

// RequireAuthor 作者或管理员
func RequireAuthor() gin.HandlerFunc {
	return RequirePermission(PermWrite)
}

// RequireAdmin 管理员
func RequireAdmin() gin.HandlerFunc {
	return RequirePermission(PermModerate)
}
