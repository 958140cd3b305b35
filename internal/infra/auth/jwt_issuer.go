// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"passport/config"
	"passport/internal/domain/entity"
	"passport/internal/domain/service"
)

// ErrSigningKeyMisconfigured is returned at construction time when no signing
// secret is configured. It aborts startup; it is never a per-request error.
var ErrSigningKeyMisconfigured = errors.New("jwt signing secret must be provided")

// jwtIssuer is a concrete implementation of the AccessTokenIssuer interface using HS256 JWTs.
type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTIssuer is the constructor for jwtIssuer.
// It takes configuration values to create a new token issuer instance.
func NewJWTIssuer(cfg *config.Config) (service.AccessTokenIssuer, error) {
	if cfg.SecretKey.Access == "" {
		return nil, ErrSigningKeyMisconfigured
	}

	accessTTL := 15 * time.Minute
	if cfg.Auth != nil && cfg.Auth.AccessTokenTTL > 0 {
		accessTTL = cfg.Auth.AccessTokenTTL
	}

	return &jwtIssuer{
		secret:    []byte(cfg.SecretKey.Access),
		accessTTL: accessTTL,
	}, nil
}

// IssueForIdentity signs a token whose subject is the identity's email.
func (s *jwtIssuer) IssueForIdentity(identity *entity.Identity) (string, error) {
	return s.IssueForEmail(identity.Email)
}

// IssueForEmail signs a token for a known email without a full authentication step.
func (s *jwtIssuer) IssueForEmail(email string) (string, error) {
	now := time.Now()
	claims := service.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Validate checks signature and expiry of a token string and returns its claims.
func (s *jwtIssuer) Validate(tokenString string) (*service.AccessClaims, error) {
	claims := &service.AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return claims, nil
}

// AccessTokenTTL returns the configured lifetime of issued tokens.
func (s *jwtIssuer) AccessTokenTTL() time.Duration {
	return s.accessTTL
}
