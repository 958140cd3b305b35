// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshCredential represents a single long-lived session token owned by one identity.
// It is exchanged for new access tokens until it expires or is revoked; both end
// states are terminal and are never resurrected.
type RefreshCredential struct {
	ID         uuid.UUID // The unique ID for this specific credential record.
	IdentityID uuid.UUID // Links this session to the Identity that owns it.
	TokenHash  string    // SHA-256 digest of the raw token value; the raw value is never stored.
	ExpiresAt  time.Time // Fixed at creation and never extended.
	CreatedAt  time.Time // Timestamp of when this session was created.
	Revoked    bool      // Once set, verification fails forever regardless of expiry.
	ClientIP   string    // IP address of the client that created the session.
	UserAgent  string    // User-Agent of the client that created the session.
}

// IsExpired reports whether the credential's expiry lies strictly before now.
func (c *RefreshCredential) IsExpired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
