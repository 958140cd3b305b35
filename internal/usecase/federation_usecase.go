// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"passport/internal/domain/entity"
)

// FederatedProfileInput is the profile asserted by an external identity
// provider after it has authenticated the principal.
type FederatedProfileInput struct {
	Email      string
	FirstName  string
	LastName   string
	ProviderID string
	AvatarURL  string
}

// FederationUsecase merges profiles asserted by external identity providers
// into the identity store. It never opens a session itself; the callback
// collaborator issues the access token and refresh credential afterwards.
type FederationUsecase interface {
	// Upsert creates a federated identity for a first-time email or refreshes
	// the profile fields of an existing one. Origin and password hash are
	// left untouched, and a provider subject is only recorded on identities
	// that are federated to begin with.
	Upsert(ctx context.Context, input FederatedProfileInput) (*entity.Identity, error)
}
