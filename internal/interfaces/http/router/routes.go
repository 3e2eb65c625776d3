package router

import (
	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/interfaces/http/middleware"
	"novel-platform-api/pkg/utils"
)

// RegisterV1Routes 注册 v1 版本路由
// readLimit 作用于匿名可访问的阅读类接口
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, jwt *utils.JWTManager, readLimit gin.HandlerFunc) {
	authRequired := middleware.Auth(jwt)
	optionalAuth := middleware.OptionalAuth(jwt)
	authorOnly := middleware.RequireAuthor()

	// 认证
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authRequired, h.Auth.Me)
	}

	// 小说
	novels := v1.Group("/novels")
	{
		novels.POST("", authRequired, authorOnly, h.Novel.CreateNovel)
		novels.GET("/:slug", readLimit, optionalAuth, h.Novel.GetNovel)
		novels.GET("/:slug/stats", authRequired, h.Novel.Stats)
		novels.GET("/:slug/chapters/:number", readLimit, optionalAuth, h.Novel.ReadChapter)
		novels.GET("/:slug/reviews", readLimit, optionalAuth, h.Novel.ListReviews)
		novels.PUT("/:id", authRequired, h.Novel.UpdateNovel)
		novels.DELETE("/:id", authRequired, h.Novel.DeleteNovel)
	}

	// 章节
	chapters := v1.Group("/chapters")
	{
		chapters.POST("", authRequired, authorOnly, h.Chapter.CreateChapter)
		chapters.PUT("/:id", authRequired, h.Chapter.UpdateChapter)
		chapters.POST("/:id/publish", authRequired, h.Chapter.PublishChapter)
		chapters.DELETE("/:id", authRequired, h.Chapter.DeleteChapter)
		chapters.GET("/:id/comments", readLimit, optionalAuth, h.Chapter.ListComments)
	}

	// 书评与评论
	reviews := v1.Group("/reviews", authRequired)
	{
		reviews.POST("", h.Community.CreateReview)
		reviews.PUT("/:id", h.Community.UpdateReview)
		reviews.POST("/:id/helpful", h.Community.ToggleHelpful)
	}
	comments := v1.Group("/comments", authRequired)
	{
		comments.POST("", h.Community.CreateComment)
		comments.POST("/:id/like", h.Community.ToggleLike)
		comments.DELETE("/:id", h.Community.DeleteComment)
	}

	// 审核后台
	admin := v1.Group("/admin", authRequired, middleware.RequireAdmin())
	{
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/novels/pending", h.Admin.PendingNovels)
		admin.POST("/novels/:id/approve", h.Admin.ApproveNovel)
		admin.POST("/novels/:id/reject", h.Admin.RejectNovel)
		admin.GET("/chapters/pending", h.Admin.PendingChapters)
		admin.POST("/chapters/:id/approve", h.Admin.ApproveChapter)
		admin.POST("/chapters/:id/reject", h.Admin.RejectChapter)
	}

	// 通知
	notifications := v1.Group("/notifications", authRequired)
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.PUT("/mark-all-read", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
		notifications.PUT("/:id/unread", h.Notification.MarkUnread)
		notifications.DELETE("/:id", h.Notification.Delete)
	}

	// 用户
	v1.GET("/users/:id", readLimit, h.User.Profile)
	me := v1.Group("/me", authRequired)
	{
		me.GET("/novels", h.Novel.MyNovels)
		me.PUT("/profile", h.User.UpdateProfile)
		me.PUT("/preferences", h.User.UpdatePreferences)
		me.GET("/history", h.User.History)
		me.GET("/subscriptions", h.User.Subscriptions)
		me.POST("/subscriptions", h.User.Subscribe)
		me.DELETE("/subscriptions/:targetType/:targetId", h.User.Unsubscribe)
		me.GET("/bookmarks", h.User.Bookmarks)
		me.POST("/bookmarks", h.User.AddBookmark)
		me.DELETE("/bookmarks/:novelId", h.User.RemoveBookmark)
	}

	// 实时推送
	v1.GET("/ws", h.Realtime.Connect)
}
