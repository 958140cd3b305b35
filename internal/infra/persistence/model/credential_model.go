package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshCredentialModel mirrors the 'refresh_credentials' table. The token is
// stored as a SHA-256 digest; the raw value never touches the database.
type RefreshCredentialModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	IdentityID uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash  string    `gorm:"type:varchar(64);unique;not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
	Revoked    bool   `gorm:"not null;default:false"`
	ClientIP   string `gorm:"type:varchar(45)"`
	UserAgent  string `gorm:"type:varchar(512)"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshCredentialModel) TableName() string {
	return "refresh_credentials"
}
