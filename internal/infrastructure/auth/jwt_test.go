package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func newTestJWTService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-at-least-32-characters!!",
		Expiration: expiration,
		Issuer:     "storefront-test",
	})
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := newTestJWTService(time.Hour)

	token, err := service.GenerateToken("admin")
	require.NoError(t, err)

	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)
}

func TestJWTService_ValidateToken(t *testing.T) {
	t.Run("valid token round trip", func(t *testing.T) {
		service := newTestJWTService(time.Hour)

		token, err := service.GenerateToken("admin")
		require.NoError(t, err)

		claims, err := service.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, "admin", claims.Subject)
		assert.Equal(t, "storefront-test", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("expired token", func(t *testing.T) {
		service := newTestJWTService(-time.Minute)

		token, err := service.GenerateToken("admin")
		require.NoError(t, err)

		_, err = service.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		service := newTestJWTService(time.Hour)
		other := NewJWTService(config.JWTConfig{
			Secret:     "another-secret-also-32-characters!!!",
			Expiration: time.Hour,
			Issuer:     "storefront-test",
		})

		token, err := other.GenerateToken("admin")
		require.NoError(t, err)

		_, err = service.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		service := newTestJWTService(time.Hour)

		_, err := service.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		service := newTestJWTService(time.Hour)

		// alg=none token with an empty signature segment
		unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJhZG1pbiJ9."
		_, err := service.ValidateToken(unsigned)
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	t.Run("plain value compared in constant time", func(t *testing.T) {
		assert.True(t, VerifyPassword("hunter2-long-enough", "hunter2-long-enough"))
		assert.False(t, VerifyPassword("hunter2-long-enough", "wrong"))
	})

	t.Run("bcrypt hash", func(t *testing.T) {
		hash, err := HashPassword("s3cret-admin-pass")
		require.NoError(t, err)

		assert.True(t, VerifyPassword(hash, "s3cret-admin-pass"))
		assert.False(t, VerifyPassword(hash, "wrong"))
	})

	t.Run("empty stored credential never matches", func(t *testing.T) {
		assert.False(t, VerifyPassword("", ""))
		assert.False(t, VerifyPassword("", "anything"))
	})
}
