package service

import (
	"time"

	"passport/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims defines the claims carried by a signed access token.
// The subject is the identity's email.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// AccessTokenIssuer defines the interface for minting and verifying short-lived
// access tokens. Tokens are never persisted; possession of a token with a valid
// signature and unexpired claims proves recent successful authentication.
type AccessTokenIssuer interface {
	// IssueForIdentity signs a token whose subject is the identity's email.
	IssueForIdentity(identity *entity.Identity) (string, error)

	// IssueForEmail signs a token for a known email, used on the refresh path
	// where a full authentication step would be redundant.
	IssueForEmail(email string) (string, error)

	// Validate checks signature and expiry of a token string and returns its claims.
	Validate(tokenString string) (*AccessClaims, error)

	// AccessTokenTTL returns the configured lifetime of issued tokens.
	AccessTokenTTL() time.Duration
}
