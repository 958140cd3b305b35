// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// credentialRepository implements the domain.CredentialRepository interface.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

// Create persists a new refresh credential, representing a session.
func (repo *credentialRepository) Create(ctx context.Context, credential *entity.RefreshCredential) error {
	credentialM := fromCredentialDomain(credential)

	if err := repo.db.WithContext(ctx).Create(credentialM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrInternalError.WrapMessage("refresh credential token collision")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrIdentityNotFound.WrapMessage("invalid identity reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh credential")
	}

	// Update the entity with generated values
	credential.ID = credentialM.ID
	credential.CreatedAt = credentialM.CreatedAt

	return nil
}

// FindByTokenHash retrieves a credential record by the digest of its token value.
// Expired and revoked records are returned as-is; the manager decides their fate.
func (repo *credentialRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshCredential, error) {
	var credentialM model.RefreshCredentialModel

	err := repo.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&credentialM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to find refresh credential by token hash")
	}

	return toCredentialDomain(&credentialM), nil
}

// MarkRevoked atomically sets the revoked flag on a still-active credential.
// The conditional update is the compare-and-swap that serializes concurrent
// rotations of the same token value across process instances.
func (repo *credentialRepository) MarkRevoked(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.RefreshCredentialModel{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to mark refresh credential revoked")
	}

	return result.RowsAffected > 0, nil
}

// RevokeAllByIdentity marks every credential owned by the identity as revoked in one statement.
func (repo *credentialRepository) RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Model(&model.RefreshCredentialModel{}).
		Where("identity_id = ? AND revoked = ?", identityID, false).
		Update("revoked", true).Error
	if err != nil {
		return errors.Wrap(err, "failed to revoke refresh credentials for identity")
	}

	return nil
}

// DeleteByID removes a credential record entirely.
func (repo *credentialRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.RefreshCredentialModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete refresh credential")
	}

	// If no rows were affected, the credential was already gone.
	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// DeleteByIdentity removes every credential owned by the identity.
func (repo *credentialRepository) DeleteByIdentity(ctx context.Context, identityID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Delete(&model.RefreshCredentialModel{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete refresh credentials for identity")
	}

	return nil
}

// DeleteExpiredBefore removes every credential whose expiry lies strictly before
// the given instant and returns how many were removed.
func (repo *credentialRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.RefreshCredentialModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete expired refresh credentials")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toCredentialDomain converts a GORM RefreshCredentialModel to a domain RefreshCredential entity.
func toCredentialDomain(data *model.RefreshCredentialModel) *entity.RefreshCredential {
	if data == nil {
		return nil
	}

	return &entity.RefreshCredential{
		ID:         data.ID,
		IdentityID: data.IdentityID,
		TokenHash:  data.TokenHash,
		ExpiresAt:  data.ExpiresAt,
		CreatedAt:  data.CreatedAt,
		Revoked:    data.Revoked,
		ClientIP:   data.ClientIP,
		UserAgent:  data.UserAgent,
	}
}

// fromCredentialDomain converts a domain RefreshCredential entity to a GORM RefreshCredentialModel.
func fromCredentialDomain(data *entity.RefreshCredential) *model.RefreshCredentialModel {
	if data == nil {
		return nil
	}

	return &model.RefreshCredentialModel{
		ID:         data.ID,
		IdentityID: data.IdentityID,
		TokenHash:  data.TokenHash,
		ExpiresAt:  data.ExpiresAt,
		CreatedAt:  data.CreatedAt,
		Revoked:    data.Revoked,
		ClientIP:   data.ClientIP,
		UserAgent:  data.UserAgent,
	}
}
