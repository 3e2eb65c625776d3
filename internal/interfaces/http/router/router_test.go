package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"novel-platform-api/internal/application/account"
	"novel-platform-api/internal/application/community"
	"novel-platform-api/internal/application/content"
	"novel-platform-api/internal/application/moderation"
	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/infrastructure/mail"
	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/internal/interfaces/http/handler"
	"novel-platform-api/internal/testutil"
	"novel-platform-api/pkg/utils"
)

const synopsis = "A synopsis that is comfortably longer than fifty characters in total."

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, int, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, 0, l.err
	}
	if !l.allow {
		return false, 0, nil
	}
	return true, limit - 1, nil
}

type stubChecker struct{ err error }

func (c stubChecker) HealthCheck(context.Context) error { return c.err }

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
	Error *struct {
		Kind   string            `json:"kind"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

type RouterSuite struct {
	suite.Suite
	store   *testutil.Store
	jwt     *utils.JWTManager
	limiter *stubLimiter
	redis   *stubChecker
	engine  *gin.Engine

	admin  *entity.User
	author *entity.User
	reader *entity.User
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	st := testutil.NewStore(s.T())
	s.store = st
	s.jwt = utils.NewJWTManager("router-test-secret", "novel-platform")
	s.limiter = &stubLimiter{allow: true}
	s.redis = &stubChecker{}

	pub := &testutil.RecordingPublisher{}
	aggregator := stats.NewAggregator(st.Novels, st.Chapters, st.Reviews, st.Users)
	dispatcher := notify.NewDispatcher(st.Notifications, pub)
	announcer := notify.NewAnnouncer(dispatcher, nil)

	contentSvc := content.NewService(st.Tx, st.Novels, st.Chapters, st.Users, aggregator, dispatcher, announcer)
	communitySvc := community.NewService(st.Tx, st.Novels, st.Chapters, st.Comments, st.Reviews, aggregator, dispatcher)
	moderationSvc := moderation.NewService(st.Tx, st.Novels, st.Chapters, st.Users, aggregator, dispatcher, announcer, nil, 0)
	accountSvc := account.NewService(st.Users, st.Novels, st.Chapters, st.Subscriptions, st.Bookmarks, s.jwt,
		account.TokenTTL{Access: time.Hour, Refresh: 24 * time.Hour},
		&testutil.RecordingMailer{}, mail.NewComposer("http://localhost:5173"))

	cfg := &config.Config{}
	cfg.App.Name = "novel-platform-api"
	cfg.App.Env = "test"
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 60, Window: time.Minute}

	handlers := &Handlers{
		Health:       handler.NewHealthHandler(stubChecker{}, s.redis, "test"),
		Auth:         handler.NewAuthHandler(accountSvc, 24*time.Hour, false),
		Novel:        handler.NewNovelHandler(contentSvc, communitySvc),
		Chapter:      handler.NewChapterHandler(contentSvc, communitySvc),
		Community:    handler.NewCommunityHandler(communitySvc),
		Admin:        handler.NewAdminHandler(moderationSvc),
		Notification: handler.NewNotificationHandler(notify.NewInbox(st.Notifications)),
		User:         handler.NewUserHandler(accountSvc),
		Realtime:     handler.NewRealtimeHandler(realtime.NewHub(realtime.Config{}), s.jwt, nil),
	}
	s.engine = New(cfg, handlers, s.jwt, s.limiter).Engine()

	s.admin = st.SeedUser(s.T(), entity.UserRoleAdmin)
	s.author = st.SeedUser(s.T(), entity.UserRoleAuthor)
	s.reader = st.SeedUser(s.T(), entity.UserRoleReader)
}

func (s *RouterSuite) token(u *entity.User) string {
	pair, err := s.jwt.GenerateTokenPair(utils.Identity{UserID: u.ID, Username: u.Username, Role: string(u.Role)}, time.Hour, time.Hour)
	s.Require().NoError(err)
	return pair.AccessToken
}

func (s *RouterSuite) do(method, path string, as *entity.User, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *RouterSuite) createNovel() *entity.Novel {
	w, env := s.do(http.MethodPost, "/v1/novels", s.author, map[string]interface{}{
		"title":    "The Long Road",
		"synopsis": synopsis,
		"genres":   []string{"fantasy"},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var novel entity.Novel
	s.Require().NoError(json.Unmarshal(env.Data, &novel))
	return &novel
}

func (s *RouterSuite) TestSystemEndpoints() {
	w, _ := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/ready", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	s.redis.err = errors.New("connection refused")
	w, _ = s.do(http.MethodGet, "/ready", nil, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "connection refused")
}

func (s *RouterSuite) TestRegisterAndLogin() {
	w, env := s.do(http.MethodPost, "/v1/auth/register", nil, map[string]string{
		"username": "newwriter",
		"email":    "newwriter@example.com",
		"password": "secret123",
		"role":     "author",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.True(env.Success)
	s.Contains(w.Header().Get("Set-Cookie"), "refresh_token=")

	w, env = s.do(http.MethodPost, "/v1/auth/login", nil, map[string]string{"login": "newwriter", "password": "secret123"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &auth))
	s.NotEmpty(auth.AccessToken)
	s.Equal("author", auth.User.Role)

	w, env = s.do(http.MethodPost, "/v1/auth/login", nil, map[string]string{"login": "newwriter", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("authentication", env.Error.Kind)
}

func (s *RouterSuite) TestRegisterValidation() {
	w, env := s.do(http.MethodPost, "/v1/auth/register", nil, map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "secret123",
		"role":     "admin",
	})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation", env.Error.Kind)
	s.Contains(env.Error.Fields, "username")
	s.Contains(env.Error.Fields, "email")
	s.Contains(env.Error.Fields, "role")
}

func (s *RouterSuite) TestUnknownFieldRejected() {
	w, env := s.do(http.MethodPost, "/v1/auth/login", nil, `{"login":"x","password":"y","admin":true}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation", env.Error.Kind)
}

func (s *RouterSuite) TestAuthAndRoles() {
	w, env := s.do(http.MethodGet, "/v1/admin/stats", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("authentication", env.Error.Kind)

	w, env = s.do(http.MethodGet, "/v1/admin/stats", s.reader, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("authorization", env.Error.Kind)

	w, _ = s.do(http.MethodPost, "/v1/novels", s.reader, map[string]interface{}{
		"title": "Nope", "synopsis": synopsis, "genres": []string{"drama"},
	})
	s.Equal(http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/novels/anything", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestModerationFlow() {
	novel := s.createNovel()
	s.Equal(entity.ApprovalPending, novel.ApprovalStatus)

	w, _ := s.do(http.MethodGet, "/v1/novels/"+novel.Slug, nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/v1/novels/"+novel.Slug, s.author, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/v1/admin/novels/pending", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var pending []entity.Novel
	s.Require().NoError(json.Unmarshal(env.Data, &pending))
	s.Require().Len(pending, 1)
	s.Equal(novel.ID, pending[0].ID)

	w, _ = s.do(http.MethodPost, "/v1/admin/novels/"+novel.ID+"/approve", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, "/v1/novels/"+novel.Slug, nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodPost, "/v1/admin/novels/"+novel.ID+"/reject", s.admin, map[string]string{"reason": "late"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("conflict", env.Error.Kind)

	w, env = s.do(http.MethodGet, "/v1/notifications", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var inbox struct {
		Items  []entity.Notification `json:"items"`
		Unread int64                 `json:"unread_count"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &inbox))
	s.Require().Len(inbox.Items, 1)
	s.Equal(entity.NotificationNovelApproved, inbox.Items[0].Type)
	s.EqualValues(1, inbox.Unread)

	w, _ = s.do(http.MethodPut, "/v1/notifications/mark-all-read", s.author, nil)
	s.Equal(http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, "/v1/notifications/unread-count", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"unread_count":0}`, string(env.Data))
}

func (s *RouterSuite) TestRejectRequiresReason() {
	novel := s.createNovel()

	w, env := s.do(http.MethodPost, "/v1/admin/novels/"+novel.ID+"/reject", s.admin, map[string]string{"reason": "   "})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Error.Fields, "reason")

	w, _ = s.do(http.MethodPost, "/v1/admin/novels/"+novel.ID+"/reject", s.admin, map[string]string{"reason": "too short"})
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestOwnershipReportedAsNotFound() {
	novel := s.createNovel()
	other := s.store.SeedUser(s.T(), entity.UserRoleAuthor)

	w, env := s.do(http.MethodDelete, "/v1/novels/"+novel.ID, other, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", env.Error.Kind)

	w, _ = s.do(http.MethodDelete, "/v1/novels/"+novel.ID, s.author, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestReadingEndpointsRateLimited() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })

	w, _ := s.do(http.MethodGet, "/v1/novels/"+novel.Slug, nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("59", w.Header().Get("X-RateLimit-Remaining"))
	s.Require().NotEmpty(s.limiter.keys)
	s.True(strings.HasPrefix(s.limiter.keys[0], "ratelimit:read:"))

	s.limiter.allow = false
	w, env := s.do(http.MethodGet, "/v1/novels/"+novel.Slug, nil, nil)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal("rate_limited", env.Error.Kind)
	s.Equal("60", w.Header().Get("Retry-After"))

	s.limiter.err = errors.New("redis down")
	w, _ = s.do(http.MethodGet, "/v1/novels/"+novel.Slug, nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestReviewsAndComments() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	ch := s.store.SeedChapter(s.T(), novel.ID, 1, "one two three", func(c *entity.Chapter) { testutil.Approved(&c.Approval) })

	w, _ := s.do(http.MethodPost, "/v1/reviews", s.reader, map[string]interface{}{
		"novel_id": novel.ID, "rating": 4, "title": "Solid", "content": "Enjoyed it.",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	w, env := s.do(http.MethodPost, "/v1/reviews", s.reader, map[string]interface{}{
		"novel_id": novel.ID, "rating": 5, "title": "Again", "content": "Twice.",
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("conflict", env.Error.Kind)

	w, env = s.do(http.MethodGet, "/v1/novels/"+novel.Slug+"/reviews", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NotNil(env.Meta)
	s.EqualValues(1, env.Meta.Total)

	w, env = s.do(http.MethodPost, "/v1/comments", s.reader, map[string]interface{}{
		"chapter_id": ch.ID, "content": "Great opening",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment entity.Comment
	s.Require().NoError(json.Unmarshal(env.Data, &comment))

	w, env = s.do(http.MethodPost, "/v1/comments/"+comment.ID+"/like", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"active":true,"count":1}`, string(env.Data))

	w, _ = s.do(http.MethodGet, "/v1/chapters/"+ch.ID+"/comments", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodDelete, "/v1/comments/"+comment.ID, s.author, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("authorization", env.Error.Kind)
	w, _ = s.do(http.MethodDelete, "/v1/comments/"+comment.ID, s.reader, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestLibrary() {
	novel := s.store.SeedNovel(s.T(), s.author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })

	w, _ := s.do(http.MethodPost, "/v1/me/subscriptions", s.reader, map[string]string{
		"target_type": "novel", "target_id": novel.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodDelete, "/v1/me/subscriptions/novel/"+novel.ID, s.reader, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/v1/me/subscriptions/novel/"+novel.ID, s.reader, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/v1/me/bookmarks", s.reader, map[string]string{"novel_id": novel.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w, env := s.do(http.MethodGet, "/v1/me/bookmarks", s.reader, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var marks []entity.Bookmark
	s.Require().NoError(json.Unmarshal(env.Data, &marks))
	s.Len(marks, 1)

	w, env = s.do(http.MethodPut, "/v1/me/preferences", s.reader, map[string]interface{}{"font_size": 40})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Error.Fields, "font_size")

	w, _ = s.do(http.MethodGet, "/v1/users/"+s.author.ID, nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestWebsocketRequiresToken() {
	w, env := s.do(http.MethodGet, "/v1/ws", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("authentication", env.Error.Kind)

	w, _ = s.do(http.MethodGet, "/v1/ws?token=garbage", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
