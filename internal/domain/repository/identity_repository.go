// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is a domain-specific error returned when an identity is not found.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository defines the standard operations for identity persistence.
// The application layer depends on this interface, not the concrete implementation.
// Emails are stored normalized (lowercased); callers normalize before querying.
type IdentityRepository interface {
	// FindByID retrieves a single identity by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// FindByEmail retrieves a single identity by its normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// ExistsByEmail reports whether an identity with the normalized email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists a new identity entity to the storage.
	Create(ctx context.Context, identity *entity.Identity) error

	// Update modifies an existing identity entity in the storage.
	Update(ctx context.Context, identity *entity.Identity) error
}
