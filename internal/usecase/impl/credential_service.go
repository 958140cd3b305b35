// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	"passport/config"
	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	txManager  repository.TransactionManager
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewCredentialService is the constructor for credentialService.
func NewCredentialService(
	txManager repository.TransactionManager,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.CredentialUsecase {
	refreshTTL := fallbackRefreshTTL
	if cfg != nil && cfg.Auth != nil && cfg.Auth.RefreshTokenTTL > 0 {
		refreshTTL = cfg.Auth.RefreshTokenTTL
	}

	return &credentialService{
		txManager:  txManager,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Issue mints and persists a new refresh credential for the identity.
func (srv *credentialService) Issue(ctx context.Context, identityID uuid.UUID, meta usecase.CredentialMetadata) (*usecase.IssuedCredential, error) {
	srv.log(ctx).Debug("Issuing refresh credential", slog.Any("identity_id", identityID))

	var issued *usecase.IssuedCredential

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// 1. Verify the identity exists
		if _, err := repoFactory.IdentityRepo().FindByID(ctx, identityID); err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "cannot issue credential for unknown identity")
			}

			return errors.Wrap(err, "failed to find identity")
		}

		// 2. Persist the new credential
		raw, credential := mintCredential(identityID, srv.refreshTTL, meta)
		if err := repoFactory.CredentialRepo().Create(ctx, credential); err != nil {
			return errors.Wrap(err, "failed to create refresh credential")
		}

		issued = &usecase.IssuedCredential{Raw: raw, Credential: credential}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to issue refresh credential", slog.Any("error", err), slog.Any("identity_id", identityID))

		return nil, errors.Wrap(err, "failed to issue refresh credential")
	}

	return issued, nil
}

// Verify checks a raw token value and returns the live credential behind it.
// Unknown tokens, expired tokens and revoked tokens fail in that order of
// precedence; an expired record is deleted on sight.
func (srv *credentialService) Verify(ctx context.Context, raw string) (*entity.RefreshCredential, error) {
	var credential *entity.RefreshCredential

	// The expired-record delete has to commit, so the expiry outcome is
	// carried past the transaction instead of failing it.
	var outcome error

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		found, err := credRepo.FindByTokenHash(ctx, hashToken(raw))
		if err != nil {
			if errors.Is(err, repository.ErrCredentialNotFound) {
				return errors.Wrap(domainerrors.ErrTokenNotFound, "no credential for presented token")
			}

			return errors.Wrap(err, "failed to find refresh credential")
		}

		if found.IsExpired(time.Now()) {
			if err := credRepo.DeleteByID(ctx, found.ID); err != nil && !errors.Is(err, repository.ErrCredentialNotFound) {
				return errors.Wrap(err, "failed to delete expired refresh credential")
			}
			outcome = errors.Wrap(domainerrors.ErrTokenExpired, "presented token is past its expiry")

			return nil
		}

		if found.Revoked {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "presented token was revoked")
		}

		credential = found

		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	return credential, nil
}

// Rotate retires the presented token and mints its successor in one
// transaction. The conditional revoke inside guarantees that concurrent
// rotations of the same token value produce exactly one successor.
func (srv *credentialService) Rotate(ctx context.Context, raw string, meta usecase.CredentialMetadata) (*usecase.IssuedCredential, error) {
	var issued *usecase.IssuedCredential

	// As in Verify, the expired-record delete must commit.
	var outcome error

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		found, err := credRepo.FindByTokenHash(ctx, hashToken(raw))
		if err != nil {
			if errors.Is(err, repository.ErrCredentialNotFound) {
				return errors.Wrap(domainerrors.ErrTokenNotFound, "no credential for presented token")
			}

			return errors.Wrap(err, "failed to find refresh credential")
		}

		if found.IsExpired(time.Now()) {
			if err := credRepo.DeleteByID(ctx, found.ID); err != nil && !errors.Is(err, repository.ErrCredentialNotFound) {
				return errors.Wrap(err, "failed to delete expired refresh credential")
			}
			outcome = errors.Wrap(domainerrors.ErrTokenExpired, "presented token is past its expiry")

			return nil
		}

		if found.Revoked {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "presented token was revoked")
		}

		revoked, err := credRepo.MarkRevoked(ctx, found.ID)
		if err != nil {
			return errors.Wrap(err, "failed to retire refresh credential")
		}
		if !revoked {
			// A concurrent rotation got there first.
			return errors.Wrap(domainerrors.ErrTokenRevoked, "presented token was rotated concurrently")
		}

		successorRaw, successor := mintCredential(found.IdentityID, srv.refreshTTL, meta)
		if err := credRepo.Create(ctx, successor); err != nil {
			return errors.Wrap(err, "failed to create successor credential")
		}

		issued = &usecase.IssuedCredential{Raw: successorRaw, Credential: successor}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Refresh credential rotation failed", slog.Any("error", err))

		return nil, err
	}
	if outcome != nil {
		srv.log(ctx).Warn("Refresh credential rotation failed", slog.Any("error", outcome))

		return nil, outcome
	}

	srv.log(ctx).Debug("Rotated refresh credential", slog.Any("identity_id", issued.Credential.IdentityID))

	return issued, nil
}

// Revoke marks the credential behind the raw token as revoked. An unknown
// token surfaces ErrTokenNotFound and the caller decides whether to absorb
// it; an already-revoked token leaves nothing to do.
func (srv *credentialService) Revoke(ctx context.Context, raw string) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		found, err := credRepo.FindByTokenHash(ctx, hashToken(raw))
		if err != nil {
			if errors.Is(err, repository.ErrCredentialNotFound) {
				return errors.Wrap(domainerrors.ErrTokenNotFound, "no credential for presented token")
			}

			return errors.Wrap(err, "failed to find refresh credential")
		}

		if _, err := credRepo.MarkRevoked(ctx, found.ID); err != nil {
			return errors.Wrap(err, "failed to mark refresh credential revoked")
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrTokenNotFound) {
			srv.log(ctx).Error("Failed to revoke refresh credential", slog.Any("error", err))
		}

		return errors.Wrap(err, "failed to revoke refresh credential")
	}

	return nil
}

// RevokeAllForIdentity revokes every credential owned by the identity.
func (srv *credentialService) RevokeAllForIdentity(ctx context.Context, identityID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all refresh credentials", slog.Any("identity_id", identityID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.CredentialRepo().RevokeAllByIdentity(ctx, identityID); err != nil {
			return errors.Wrap(err, "failed to revoke credentials for identity")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke all refresh credentials", slog.Any("error", err), slog.Any("identity_id", identityID))

		return errors.Wrap(err, "failed to revoke all refresh credentials")
	}

	return nil
}

// SweepExpired deletes every credential past its expiry and reports the count.
func (srv *credentialService) SweepExpired(ctx context.Context) (int64, error) {
	var swept int64

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		count, err := repoFactory.CredentialRepo().DeleteExpiredBefore(ctx, time.Now())
		if err != nil {
			return errors.Wrap(err, "failed to delete expired credentials")
		}
		swept = count

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to sweep expired credentials", slog.Any("error", err))

		return 0, errors.Wrap(err, "failed to sweep expired credentials")
	}

	srv.log(ctx).Info("Swept expired refresh credentials", slog.Int64("removed", swept))

	return swept, nil
}
