// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new local identity.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	ClientIP        string
	UserAgent       string
}

// LoginInput defines the data required to authenticate with a password.
type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	UserAgent string
}

// RefreshInput carries the refresh token presented for rotation, along with
// the client metadata to stamp on the successor credential.
type RefreshInput struct {
	RefreshToken string
	ClientIP     string
	UserAgent    string
}

// LogoutInput carries the refresh token whose session should end.
type LogoutInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// AuthOutput returns the authenticated identity together with a fresh token pair.
type AuthOutput struct {
	Identity     *entity.Identity
	AccessToken  string
	RefreshToken string
}

// TokenPairOutput returns a fresh token pair without identity details,
// used on the refresh path.
type TokenPairOutput struct {
	AccessToken  string
	RefreshToken string
}

// AuthUsecase defines the interface for authentication flows.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	// Register creates a local identity and opens its first session.
	// The identity and its credential are persisted together or not at all.
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)

	// Login verifies a password and opens a new session. Unknown email and
	// wrong password are indistinguishable in the returned error.
	Login(ctx context.Context, input LoginInput) (*AuthOutput, error)

	// Refresh trades a live refresh token for a new token pair, retiring
	// the presented token in the same step.
	Refresh(ctx context.Context, input RefreshInput) (*TokenPairOutput, error)

	// Logout ends the session behind the given refresh token. It never fails:
	// a missing, expired or already-revoked token leaves nothing to end.
	Logout(ctx context.Context, input LogoutInput) error

	// LogoutEverywhere revokes every session owned by the identity.
	LogoutEverywhere(ctx context.Context, identityID uuid.UUID) error

	// CurrentIdentity resolves the identity behind a validated access-token subject.
	CurrentIdentity(ctx context.Context, email string) (*entity.Identity, error)
}
