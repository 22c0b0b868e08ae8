// Package auth issues and validates the HS256 tokens guarding the admin API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"f1-pitwall/internal/core/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer    = "f1-pitwall"
	RoleAdmin = "admin"
)

var ErrForbidden = errors.New("token lacks admin role")

type Authenticator struct {
	signingKey []byte
	now        func() time.Time
}

func NewAuthenticator(cfg config.Config) *Authenticator {
	return &Authenticator{signingKey: []byte(cfg.AdminJWTSecret), now: time.Now}
}

type AdminClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IssueToken mints an admin token for subject valid for ttl.
func (a *Authenticator) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := AdminClaims{
		Roles: []string{RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry and issuer, and requires the admin role.
func (a *Authenticator) ValidateToken(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.signingKey, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid admin token")
	}
	if !claims.HasRole(RoleAdmin) {
		return nil, ErrForbidden
	}
	return claims, nil
}
