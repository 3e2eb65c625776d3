package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/interfaces/http/dto"
	"novel-platform-api/internal/interfaces/http/middleware"
)

const refreshCookie = "refresh_token"

// AuthHandler 认证处理器
type AuthHandler struct {
	accounts   *account.Service
	refreshTTL time.Duration
	secure     bool
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(accounts *account.Service, refreshTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, refreshTTL: refreshTTL, secure: secureCookie}
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.setRefreshCookie(c, session.Tokens.RefreshToken)
	dto.Created(c, dto.ToAuthResponse(session))
}

// Login 登录
// @Summary 用户登录
// @Description 邮箱或用户名 + 密码，返回双 Token
// @Tags Auth
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setRefreshCookie(c, session.Tokens.RefreshToken)
	dto.Success(c, dto.ToAuthResponse(session))
}

// Refresh 刷新 Token，优先读取请求体，其次读取 Cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookie)
	}
	session, err := h.accounts.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setRefreshCookie(c, session.Tokens.RefreshToken)
	dto.Success(c, dto.ToAuthResponse(session))
}

// Logout 登出，令牌无状态，只清理 Cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/v1/auth", "", h.secure, true)
	dto.Message(c, "logged out")
}

// Me 当前用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.accounts.Me(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToUserResponse(user))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(refreshCookie, token, int(h.refreshTTL.Seconds()), "/v1/auth", "", h.secure, true)
}
