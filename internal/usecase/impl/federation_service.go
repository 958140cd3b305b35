// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/usecase"

	"github.com/pkg/errors"
)

// federationService implements the FederationUsecase interface.
type federationService struct {
	txManager repository.TransactionManager
	logger    *slog.Logger
}

// NewFederationService is the constructor for federationService.
func NewFederationService(txManager repository.TransactionManager, logger *slog.Logger) usecase.FederationUsecase {
	return &federationService{
		txManager: txManager,
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *federationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Upsert merges a provider-asserted profile into the identity store. A
// first-time email creates a federated identity; a known email has its
// profile refreshed while its origin and password hash stay untouched, so a
// local account visited by a provider keeps its password login. No tokens
// are issued here.
func (srv *federationService) Upsert(ctx context.Context, input usecase.FederatedProfileInput) (*entity.Identity, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Merging federated profile", slog.String("email", email))

	if email == "" {
		return nil, errors.Wrap(domainerrors.ErrEmailRequired, "provider assertion carries no email")
	}

	var identity *entity.Identity

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()

		found, err := identityRepo.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, repository.ErrIdentityNotFound):
			// First visit: the provider has already attested the email.
			identity = &entity.Identity{
				FirstName:     input.FirstName,
				LastName:      input.LastName,
				Email:         email,
				Origin:        entity.OriginFederated,
				ProviderID:    input.ProviderID,
				AvatarURL:     input.AvatarURL,
				EmailVerified: true,
			}
			if err := identityRepo.Create(ctx, identity); err != nil {
				return errors.Wrap(err, "failed to create federated identity")
			}
		case err != nil:
			return errors.Wrap(err, "failed to find identity by email")
		default:
			applyProviderProfile(found, input)
			if err := identityRepo.Update(ctx, found); err != nil {
				return errors.Wrap(err, "failed to update identity from provider profile")
			}
			identity = found
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to merge federated profile", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to merge federated profile")
	}

	srv.log(ctx).Debug("Federated profile merged", slog.Any("identity_id", identity.ID))

	return identity, nil
}

// applyProviderProfile refreshes the fields the provider is authoritative
// for. Origin and PasswordHash are never touched, and the provider subject is
// only recorded on identities that are federated to begin with, so a local
// identity never ends up carrying both a password hash and a provider ID.
func applyProviderProfile(identity *entity.Identity, input usecase.FederatedProfileInput) {
	if input.FirstName != "" {
		identity.FirstName = input.FirstName
	}
	if input.LastName != "" {
		identity.LastName = input.LastName
	}
	if input.AvatarURL != "" {
		identity.AvatarURL = input.AvatarURL
	}
	if identity.Origin == entity.OriginFederated {
		if input.ProviderID != "" {
			identity.ProviderID = input.ProviderID
		}
		identity.EmailVerified = true
	}
}
