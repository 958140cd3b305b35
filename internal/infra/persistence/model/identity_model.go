package model

import (
	"time"

	"github.com/google/uuid"
)

// IdentityModel mirrors the 'identities' table. Emails are stored lowercased so
// the unique index enforces case-insensitive uniqueness across all origins.
type IdentityModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	FirstName     string    `gorm:"type:varchar(100);not null"`
	LastName      string    `gorm:"type:varchar(100);not null"`
	Email         string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash  string    `gorm:"type:varchar(255)"`
	Origin        string    `gorm:"type:varchar(20);not null"`
	ProviderID    string    `gorm:"type:varchar(255)"`
	AvatarURL     string    `gorm:"type:varchar(512)"`
	EmailVerified bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}
