package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		username string
		role     string
		useruid  string
	}{
		{
			name:     "admin user",
			username: "debo_da_zouker",
			role:     "admin",
			useruid:  "2b8f0a52-6d0e-4f3a-9a61-111111111111",
		},
		{
			name:     "regular user",
			username: "regular_user",
			role:     "user",
			useruid:  "2b8f0a52-6d0e-4f3a-9a61-222222222222",
		},
		{
			name:     "user with email username",
			username: "user@domain.com",
			role:     "user",
			useruid:  "2b8f0a52-6d0e-4f3a-9a61-333333333333",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role, tt.useruid)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, tt.useruid, claims.UserUID)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Minute)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidCases(t *testing.T) {
	maker := NewJWTMaker("secret_one", time.Minute)
	otherMaker := NewJWTMaker("secret_two", time.Minute)

	validToken, err := maker.GenerateToken("dancer", "user", "uid-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "garbage token",
			token: "not.a.token",
		},
		{
			name:  "empty token",
			token: "",
		},
		{
			name: "wrong signature",
			token: func() string {
				tkn, err := otherMaker.GenerateToken("dancer", "user", "uid-1")
				require.NoError(t, err)
				return tkn
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
		})
	}

	t.Run("expired token", func(t *testing.T) {
		expiredMaker := NewJWTMaker("secret_one", -time.Minute)
		tkn, err := expiredMaker.GenerateToken("dancer", "user", "uid-1")
		require.NoError(t, err)
		_, err = maker.ParseToken(tkn)
		assert.Error(t, err)
	})

	t.Run("valid token still parses", func(t *testing.T) {
		_, err := maker.ParseToken(validToken)
		assert.NoError(t, err)
	})
}
