package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbox/claimtrack/common/config"
)

func testAuthConfig(ttl time.Duration) config.AuthConfig {
	return config.AuthConfig{
		TokenTTL: ttl,
		Users: []config.AuthUser{
			{ID: 2, Name: "Admin", Email: "admin@example.com", Password: "hunter2", Role: "admin"},
			{ID: 3, Name: "Biller", Email: "biller@example.com", Password: "s3cret", Role: "user"},
		},
	}
}

func TestAuth_LoginAndVerify(t *testing.T) {
	svc := NewAuthService(testAuthConfig(time.Hour), testLogger())

	token, principal, err := svc.Login("admin@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, 2, principal.ID)
	assert.Equal(t, "admin", principal.Role)

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, verified.ID)
	assert.Equal(t, principal.Email, verified.Email)
}

func TestAuth_EmailIsCaseInsensitive(t *testing.T) {
	svc := NewAuthService(testAuthConfig(time.Hour), testLogger())

	_, principal, err := svc.Login("  Admin@Example.COM ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 2, principal.ID)
}

func TestAuth_InvalidCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig(time.Hour), testLogger())

	_, _, err := svc.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_UnknownToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig(time.Hour), testLogger())

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_ExpiredToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig(-time.Second), testLogger())

	token, _, err := svc.Login("biller@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_TokensAreUniquePerLogin(t *testing.T) {
	svc := NewAuthService(testAuthConfig(time.Hour), testLogger())

	first, _, err := svc.Login("admin@example.com", "hunter2")
	require.NoError(t, err)
	second, _, err := svc.Login("admin@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
