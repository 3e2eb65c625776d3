package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "novel-platform")
	pair, err := m.GenerateTokenPair(Identity{UserID: "u1", Username: "alice", Role: "author"}, time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "author", claims.Role)

	_, err = m.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "novel-platform")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken(Identity{UserID: "u1", Role: "reader"}, TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "novel-platform").ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecretOrIssuer(t *testing.T) {
	token, err := NewJWTManager("secret", "novel-platform").GenerateToken(Identity{UserID: "u1"}, TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = NewJWTManager("other", "novel-platform").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("secret", "someone-else").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
