package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouchersync/internal/core/apperror"
)

func testJWT() *JWTService {
	return NewJWTService(DefaultJWTConfig("test-secret"))
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := testJWT()

	token, expiresAt, err := svc.GenerateAccessToken("nepal.admin", []string{"nepal"}, false)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "nepal.admin", user.UserID)
	assert.Equal(t, []string{"nepal"}, user.Regions)
	assert.False(t, user.IsAdmin)
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	token, _, err := testJWT().GenerateAccessToken("u", nil, false)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_RejectsGarbage(t *testing.T) {
	_, err := testJWT().ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	svc := NewService([]Admin{
		{Username: "nepal.admin", PasswordHash: hash, Regions: []string{"nepal"}},
	}, testJWT())
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, _, err := svc.Login(ctx, "nepal.admin", "s3cret")
		require.NoError(t, err)

		user, err := testJWT().ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, []string{"nepal"}, user.Regions)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nepal.admin", "wrong")
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost", "s3cret")
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})
}
