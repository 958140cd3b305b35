// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the core entity of the system, representing a registered principal.
// Its email is the case-insensitive unique key across the whole store, regardless
// of how the identity authenticates.
type Identity struct {
	ID            uuid.UUID // The unique, stable identifier for this identity.
	FirstName     string    // The principal's given name.
	LastName      string    // The principal's family name.
	Email         string    // Normalized (lowercased) email, unique across all origins.
	PasswordHash  string    // Bcrypt hash of the password. Present only for local identities.
	Origin        Origin    // How the identity authenticates: local password or federated provider.
	ProviderID    string    // The external provider's subject ID. Present only for federated identities.
	AvatarURL     string    // URL of the principal's avatar image, if any.
	EmailVerified bool      // Whether the email has been attested. Federated identities start verified.
	CreatedAt     time.Time // Timestamp of when this identity was created.
	UpdatedAt     time.Time // Timestamp of the last modification to this identity.
}

// IsLocal reports whether the identity authenticates with a password.
func (i *Identity) IsLocal() bool {
	return i.Origin == OriginLocal
}
