package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	t.Run("Round Trip", func(t *testing.T) {
		token, err := service.GenerateToken("user-1", "ravi@example.com", false)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "ravi@example.com", claims.Email)
		assert.False(t, claims.IsAdmin)
		assert.Equal(t, "swiftrail-reservation", claims.Issuer)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("Admin Flag Carried", func(t *testing.T) {
		token, err := service.GenerateToken("admin-1", "admin@example.com", true)
		require.NoError(t, err)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		token, err := service.GenerateToken("user-1", "ravi@example.com", false)
		require.NoError(t, err)

		other := NewService("different-secret", time.Hour)
		claims, err := other.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Expired Token Rejected", func(t *testing.T) {
		shortLived := NewService("test-secret", -time.Minute)
		token, err := shortLived.GenerateToken("user-1", "ravi@example.com", false)
		require.NoError(t, err)

		claims, err := shortLived.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Garbage Token Rejected", func(t *testing.T) {
		claims, err := service.ValidateToken("not.a.token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
