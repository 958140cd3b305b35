// Package impl contains the application-specific business rules implementations.
package impl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"passport/internal/domain/entity"
	"passport/internal/usecase"

	"github.com/google/uuid"
)

// fallbackRefreshTTL guards against services constructed without auth config.
const fallbackRefreshTTL = 7 * 24 * time.Hour

// hashToken digests a raw refresh token value for storage and lookup.
// Only the digest ever reaches the store.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

// mintCredential builds an unsaved refresh credential and returns the raw
// token value alongside it. The raw value is handed to the client once and
// never persisted.
func mintCredential(identityID uuid.UUID, ttl time.Duration, meta usecase.CredentialMetadata) (string, *entity.RefreshCredential) {
	raw := uuid.NewString()

	return raw, &entity.RefreshCredential{
		IdentityID: identityID,
		TokenHash:  hashToken(raw),
		ExpiresAt:  time.Now().Add(ttl),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
	}
}

// normalizeEmail trims and lowercases so the same address always hits the
// same store record, whatever casing the client used.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
