// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// CredentialMetadata captures where a session was opened from.
type CredentialMetadata struct {
	ClientIP  string
	UserAgent string
}

// IssuedCredential pairs the raw token value handed to the client with the
// persisted record. The raw value exists only in this struct; the store keeps
// its digest.
type IssuedCredential struct {
	Raw        string
	Credential *entity.RefreshCredential
}

// CredentialUsecase manages the lifecycle of refresh credentials: issuance,
// verification, rotation, revocation and expiry sweeping.
type CredentialUsecase interface {
	// Issue mints a new refresh credential for the identity.
	Issue(ctx context.Context, identityID uuid.UUID, meta CredentialMetadata) (*IssuedCredential, error)

	// Verify checks a raw token value and returns the live credential behind it.
	// Expired records are deleted on sight.
	Verify(ctx context.Context, raw string) (*entity.RefreshCredential, error)

	// Rotate retires the presented token and mints its successor in a single
	// atomic step. Concurrent rotations of the same token produce exactly one
	// successor; the losers are told the token was revoked.
	Rotate(ctx context.Context, raw string, meta CredentialMetadata) (*IssuedCredential, error)

	// Revoke marks the credential behind the raw token as revoked. An unknown
	// token surfaces ErrTokenNotFound; revoking an already-revoked token is a
	// no-op.
	Revoke(ctx context.Context, raw string) error

	// RevokeAllForIdentity revokes every credential owned by the identity.
	RevokeAllForIdentity(ctx context.Context, identityID uuid.UUID) error

	// SweepExpired deletes every credential past its expiry and reports how
	// many were removed.
	SweepExpired(ctx context.Context) (int64, error)
}
