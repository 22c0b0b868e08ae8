package auth

import (
	"testing"
	"time"

	"f1-pitwall/internal/core/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	a := NewAuthenticator(config.Config{AdminJWTSecret: "s3cret"})

	token, err := a.IssueToken("ops", time.Hour)
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.True(t, claims.HasRole(RoleAdmin))
}

func TestValidateRejects(t *testing.T) {
	a := NewAuthenticator(config.Config{AdminJWTSecret: "s3cret"})
	other := NewAuthenticator(config.Config{AdminJWTSecret: "different"})

	foreign, err := other.IssueToken("ops", time.Hour)
	require.NoError(t, err)
	_, err = a.ValidateToken(foreign)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, err := a.IssueToken("ops", -time.Minute)
	require.NoError(t, err)
	_, err = a.ValidateToken(expired)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = a.ValidateToken(noRole)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = a.ValidateToken("not-a-token")
	require.Error(t, err)
}
