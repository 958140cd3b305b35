// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrCredentialNotFound is returned when a refresh credential is not found.
var ErrCredentialNotFound = errors.New("refresh credential not found")

// CredentialRepository defines the operations for refresh-credential persistence.
// Operations on the same token value must observe a single linear history; the
// store's transactions and the conditional update below enforce this, not
// in-process locking, since multiple process instances may share the store.
type CredentialRepository interface {
	// Create persists a new refresh credential, representing a session.
	Create(ctx context.Context, credential *entity.RefreshCredential) error

	// FindByTokenHash retrieves a credential record by the digest of its token
	// value. Expired and revoked records are returned as-is; the caller decides
	// their fate.
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshCredential, error)

	// MarkRevoked atomically sets the revoked flag on a still-active credential.
	// It reports false when the record was already revoked or missing, which is
	// how concurrent rotations of the same token value are serialized: exactly
	// one caller observes true.
	MarkRevoked(ctx context.Context, id uuid.UUID) (bool, error)

	// RevokeAllByIdentity marks every credential owned by the identity as
	// revoked in one statement.
	RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) error

	// DeleteByID removes a credential record entirely.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// DeleteByIdentity removes every credential owned by the identity.
	DeleteByIdentity(ctx context.Context, identityID uuid.UUID) error

	// DeleteExpiredBefore removes every credential whose expiry lies strictly
	// before the given instant and returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}
