package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/infrastructure/mail"
	"novel-platform-api/internal/testutil"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/utils"
)

type AccountSuite struct {
	suite.Suite
	ctx    context.Context
	store  *testutil.Store
	mailer *testutil.RecordingMailer
	jwt    *utils.JWTManager
	svc    *Service
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

func (s *AccountSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewStore(s.T())
	s.mailer = &testutil.RecordingMailer{}
	s.jwt = utils.NewJWTManager("test-secret", "novel-platform")

	st := s.store
	s.svc = NewService(st.Users, st.Novels, st.Chapters, st.Subscriptions, st.Bookmarks, s.jwt,
		TokenTTL{Access: 15 * time.Minute, Refresh: 24 * time.Hour},
		s.mailer, mail.NewComposer("https://novels.example.com"))
}

func actorOf(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: u.Role}
}

func (s *AccountSuite) register(name string, role entity.UserRole) *Session {
	sess, err := s.svc.Register(s.ctx, RegisterInput{
		Username: name,
		Email:    name + "@Example.com",
		Password: "secret-pass",
		Role:     role,
	})
	s.Require().NoError(err)
	return sess
}

func (s *AccountSuite) TestRegisterAndLogin() {
	sess := s.register("alice", entity.UserRoleAuthor)
	s.Equal("alice@example.com", sess.User.Email)
	s.Equal(entity.UserRoleAuthor, sess.User.Role)
	s.Equal(900, sess.ExpiresIn)

	claims, err := s.jwt.ParseAccessToken(sess.Tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(sess.User.ID, claims.UserID)
	s.Equal("author", claims.Role)

	sent := s.mailer.Sent()
	s.Require().Len(sent, 1)
	s.Equal([]string{"alice@example.com"}, sent[0].To)

	byEmail, err := s.svc.Login(s.ctx, "ALICE@example.com", "secret-pass")
	s.Require().NoError(err)
	s.Equal(sess.User.ID, byEmail.User.ID)

	byName, err := s.svc.Login(s.ctx, "alice", "secret-pass")
	s.Require().NoError(err)
	s.Equal(sess.User.ID, byName.User.ID)

	_, err = s.svc.Login(s.ctx, "alice", "wrong")
	s.True(apperrors.IsKind(err, apperrors.KindAuthentication))
	_, err = s.svc.Login(s.ctx, "nobody", "secret-pass")
	s.True(apperrors.IsKind(err, apperrors.KindAuthentication))
}

func (s *AccountSuite) TestRegisterValidation() {
	cases := map[string]RegisterInput{
		"role":     {Username: "mallory", Email: "m@example.com", Password: "secret-pass", Role: entity.UserRoleAdmin},
		"username": {Username: "ab", Email: "ab@example.com", Password: "secret-pass"},
		"email":    {Username: "bob", Email: "not-an-email", Password: "secret-pass"},
		"password": {Username: "bob", Email: "bob@example.com", Password: "123"},
	}
	for field, in := range cases {
		_, err := s.svc.Register(s.ctx, in)
		s.True(apperrors.IsKind(err, apperrors.KindValidation), field)
		s.Contains(apperrors.AsAppError(err).Fields, field)
	}

	s.register("carol", "")
	_, err := s.svc.Register(s.ctx, RegisterInput{Username: "carol", Email: "other@example.com", Password: "secret-pass"})
	s.ErrorIs(err, apperrors.ErrDuplicateAccount)
	_, err = s.svc.Register(s.ctx, RegisterInput{Username: "carol2", Email: "CAROL@example.com", Password: "secret-pass"})
	s.ErrorIs(err, apperrors.ErrDuplicateAccount)
}

func (s *AccountSuite) TestRefresh() {
	sess := s.register("dave", entity.UserRoleReader)

	next, err := s.svc.Refresh(s.ctx, sess.Tokens.RefreshToken)
	s.Require().NoError(err)
	s.Equal(sess.User.ID, next.User.ID)

	_, err = s.svc.Refresh(s.ctx, sess.Tokens.AccessToken)
	s.ErrorIs(err, apperrors.ErrTokenInvalid)
	_, err = s.svc.Refresh(s.ctx, "garbage")
	s.ErrorIs(err, apperrors.ErrTokenInvalid)
	_, err = s.svc.Refresh(s.ctx, "")
	s.ErrorIs(err, apperrors.ErrTokenMissing)
}

func (s *AccountSuite) TestPreferences() {
	user := s.store.SeedUser(s.T(), entity.UserRoleReader)
	dark := entity.ThemeDark
	size := 20

	prefs, err := s.svc.UpdatePreferences(s.ctx, actorOf(user), PreferencesPatch{Theme: &dark, FontSize: &size})
	s.Require().NoError(err)
	s.Equal(entity.Preferences{Theme: dark, FontSize: 20, LineHeight: 1.6}, prefs)

	me, err := s.svc.Me(s.ctx, actorOf(user))
	s.Require().NoError(err)
	s.Equal(prefs, me.Preferences)

	huge := 40
	_, err = s.svc.UpdatePreferences(s.ctx, actorOf(user), PreferencesPatch{FontSize: &huge})
	s.Contains(apperrors.AsAppError(err).Fields, "font_size")

	sepia := entity.Theme("sepia")
	_, err = s.svc.UpdatePreferences(s.ctx, actorOf(user), PreferencesPatch{Theme: &sepia})
	s.Contains(apperrors.AsAppError(err).Fields, "theme")

	tight := 0.5
	_, err = s.svc.UpdatePreferences(s.ctx, actorOf(user), PreferencesPatch{LineHeight: &tight})
	s.Contains(apperrors.AsAppError(err).Fields, "line_height")
}

func (s *AccountSuite) TestSubscriptions() {
	reader := s.store.SeedUser(s.T(), entity.UserRoleReader)
	author := s.store.SeedUser(s.T(), entity.UserRoleAuthor)
	novel := s.store.SeedNovel(s.T(), author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	pending := s.store.SeedNovel(s.T(), author.ID, nil)

	_, err := s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeNovel, novel.ID)
	s.Require().NoError(err)
	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeUser, author.ID)
	s.Require().NoError(err)

	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeNovel, novel.ID)
	s.ErrorIs(err, apperrors.ErrDuplicateSubscribe)
	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeUser, reader.ID)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeNovel, pending.ID)
	s.ErrorIs(err, apperrors.ErrNovelNotFound)
	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscribeUser, "7d0c9a3e-0000-4000-8000-000000000000")
	s.ErrorIs(err, apperrors.ErrUserNotFound)
	_, err = s.svc.Subscribe(s.ctx, actorOf(reader), entity.SubscriptionTarget("tag"), "x")
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	subs, err := s.svc.Subscriptions(s.ctx, actorOf(reader))
	s.Require().NoError(err)
	s.Len(subs, 2)

	s.Require().NoError(s.svc.Unsubscribe(s.ctx, actorOf(reader), entity.SubscribeNovel, novel.ID))
	err = s.svc.Unsubscribe(s.ctx, actorOf(reader), entity.SubscribeNovel, novel.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *AccountSuite) TestBookmarks() {
	reader := s.store.SeedUser(s.T(), entity.UserRoleReader)
	author := s.store.SeedUser(s.T(), entity.UserRoleAuthor)
	novel := s.store.SeedNovel(s.T(), author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	other := s.store.SeedNovel(s.T(), author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	ch := s.store.SeedChapter(s.T(), novel.ID, 1, "some words", nil)
	foreign := s.store.SeedChapter(s.T(), other.ID, 1, "some words", nil)

	_, err := s.svc.AddBookmark(s.ctx, actorOf(reader), novel.ID, nil)
	s.Require().NoError(err)
	mark, err := s.svc.AddBookmark(s.ctx, actorOf(reader), novel.ID, &ch.ID)
	s.Require().NoError(err)
	s.Equal(ch.ID, *mark.ChapterID)

	_, err = s.svc.AddBookmark(s.ctx, actorOf(reader), other.ID, &ch.ID)
	s.ErrorIs(err, apperrors.ErrChapterNotFound)
	_, err = s.svc.AddBookmark(s.ctx, actorOf(reader), other.ID, &foreign.ID)
	s.Require().NoError(err)

	marks, err := s.svc.Bookmarks(s.ctx, actorOf(reader))
	s.Require().NoError(err)
	s.Len(marks, 2)

	s.Require().NoError(s.svc.RemoveBookmark(s.ctx, actorOf(reader), novel.ID))
	err = s.svc.RemoveBookmark(s.ctx, actorOf(reader), novel.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *AccountSuite) TestProfileAndHistory() {
	author := s.store.SeedUser(s.T(), entity.UserRoleAuthor)
	public := s.store.SeedNovel(s.T(), author.ID, func(n *entity.Novel) { testutil.Approved(&n.Approval) })
	s.store.SeedNovel(s.T(), author.ID, nil)

	profile, err := s.svc.PublicProfile(s.ctx, author.ID)
	s.Require().NoError(err)
	s.Equal(author.Username, profile.Username)
	s.Require().Len(profile.Novels, 1)
	s.Equal(public.ID, profile.Novels[0].ID)
	s.NotNil(profile.Badges)

	_, err = s.svc.PublicProfile(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrUserNotFound)

	history, err := s.svc.History(s.ctx, actorOf(author))
	s.Require().NoError(err)
	s.Empty(history)

	bio := "Writes about the sea."
	updated, err := s.svc.UpdateProfile(s.ctx, actorOf(author), ProfilePatch{Bio: &bio})
	s.Require().NoError(err)
	s.Equal(bio, updated.Bio)
}
