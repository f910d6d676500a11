package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "lessonpath-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()
	tokens := testTokens()

	hash, err := tokens.HashPassword("hunter22")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$m=65536,t=3,p=1$")
	require.True(t, tokens.VerifyPassword("hunter22", hash))
	require.False(t, tokens.VerifyPassword("hunter23", hash))
	require.False(t, tokens.VerifyPassword("hunter22", "$argon2id$broken"))

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, tokens.VerifyPassword("legacy-pass", string(legacy)))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	tokens := testTokens()

	pair, err := tokens.IssuePair("user-1", true)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Greater(t, pair.ExpiresAt, time.Now().Unix())

	actor, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, Actor{UserID: "user-1", IsAdmin: true}, actor)

	userID, err := tokens.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestTokenVerificationFailures(t *testing.T) {
	t.Parallel()
	tokens := testTokens()
	pair, err := tokens.IssuePair("user-1", false)
	require.NoError(t, err)

	t.Run("token types are not interchangeable", func(t *testing.T) {
		_, err := tokens.VerifyAccess(pair.RefreshToken)
		require.Error(t, err)
		_, err = tokens.VerifyRefresh(pair.AccessToken)
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testTokens()
		other.Secret = []byte("other")
		_, err := other.VerifyAccess(pair.AccessToken)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testTokens()
		other.Issuer = "someone-else"
		_, err := other.VerifyAccess(pair.AccessToken)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := testTokens()
		expired.AccessTTL = -time.Minute
		token, _, err := expired.CreateAccessToken("user-1", false)
		require.NoError(t, err)
		_, err = tokens.VerifyAccess(token)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.VerifyAccess("not-a-token")
		require.Error(t, err)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	require.NoError(t, requireAdmin(adminActor))
	require.Equal(t, 403, StatusOf(requireAdmin(studentActor)))
	require.Equal(t, 401, StatusOf(requireAdmin(Actor{})))
}
