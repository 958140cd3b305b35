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
	"passport/internal/domain/service"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager   repository.TransactionManager
	credentials usecase.CredentialUsecase
	hasher      service.PasswordHasher
	issuer      service.AccessTokenIssuer
	refreshTTL  time.Duration
	logger      *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	Credentials usecase.CredentialUsecase
	Hasher      service.PasswordHasher
	Issuer      service.AccessTokenIssuer
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	refreshTTL := fallbackRefreshTTL
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.RefreshTokenTTL > 0 {
		refreshTTL = params.Config.Auth.RefreshTokenTTL
	}

	return &authService{
		txManager:   params.TxManager,
		credentials: params.Credentials,
		hasher:      params.Hasher,
		issuer:      params.Issuer,
		refreshTTL:  refreshTTL,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a local identity and its first session. The identity, its
// credential and the signed access token stand or fall together: any failure
// rolls the whole registration back.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if email == "" {
		return nil, errors.Wrap(domainerrors.ErrEmailRequired, "registration requires an email")
	}
	if input.Password != input.ConfirmPassword {
		srv.log(ctx).Warn("Password confirmation mismatch during registration", slog.String("email", email))

		return nil, errors.Wrap(domainerrors.ErrPasswordMismatch, "confirmation does not match password")
	}

	// Bcrypt is deliberately slow, so hash before entering the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	var output *usecase.AuthOutput

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()

		// 1. The email must be free across all origins
		exists, err := identityRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "failed to check email availability")
		}
		if exists {
			return domainerrors.ErrEmailAlreadyExists.WrapMessage("email already registered")
		}

		// 2. Create the identity
		newIdentity := &entity.Identity{
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Email:        email,
			PasswordHash: hashedPassword,
			Origin:       entity.OriginLocal,
		}
		if err := identityRepo.Create(ctx, newIdentity); err != nil {
			return errors.Wrap(err, "failed to create identity")
		}

		// 3. Open the first session
		rawToken, credential := mintCredential(newIdentity.ID, srv.refreshTTL, usecase.CredentialMetadata{
			ClientIP:  input.ClientIP,
			UserAgent: input.UserAgent,
		})
		if err := repoFactory.CredentialRepo().Create(ctx, credential); err != nil {
			return errors.Wrap(err, "failed to create refresh credential")
		}

		accessToken, err := srv.issuer.IssueForIdentity(newIdentity)
		if err != nil {
			return errors.Wrap(err, "failed to sign access token")
		}

		output = &usecase.AuthOutput{
			Identity:     newIdentity,
			AccessToken:  accessToken,
			RefreshToken: rawToken,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("identity_id", output.Identity.ID))

	return output, nil
}

// Login verifies a password and opens a new session. An unknown email and a
// wrong password surface the same error, so callers cannot probe which
// addresses are registered.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Starting login", slog.String("email", email))

	var output *usecase.AuthOutput

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identity, err := repoFactory.IdentityRepo().FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidCredentials, "no identity for email")
			}

			return errors.Wrap(err, "failed to find identity by email")
		}

		// Federated identities carry no password hash and cannot log in here.
		if !identity.IsLocal() || !srv.hasher.Check(input.Password, identity.PasswordHash) {
			return errors.Wrap(domainerrors.ErrInvalidCredentials, "password check failed")
		}

		rawToken, credential := mintCredential(identity.ID, srv.refreshTTL, usecase.CredentialMetadata{
			ClientIP:  input.ClientIP,
			UserAgent: input.UserAgent,
		})
		if err := repoFactory.CredentialRepo().Create(ctx, credential); err != nil {
			return errors.Wrap(err, "failed to create refresh credential")
		}

		accessToken, err := srv.issuer.IssueForIdentity(identity)
		if err != nil {
			return errors.Wrap(err, "failed to sign access token")
		}

		output = &usecase.AuthOutput{
			Identity:     identity,
			AccessToken:  accessToken,
			RefreshToken: rawToken,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute login transaction")
	}

	srv.log(ctx).Debug("Login completed", slog.Any("identity_id", output.Identity.ID))

	return output, nil
}

// Refresh trades a live refresh token for a new token pair. The rotation
// itself is atomic; the access token is signed afterwards for the
// credential's owner.
func (srv *authService) Refresh(ctx context.Context, input usecase.RefreshInput) (*usecase.TokenPairOutput, error) {
	issued, err := srv.credentials.Rotate(ctx, input.RefreshToken, usecase.CredentialMetadata{
		ClientIP:  input.ClientIP,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	var accessToken string

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identity, err := repoFactory.IdentityRepo().FindByID(ctx, issued.Credential.IdentityID)
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrTokenRevoked, "credential owner no longer exists")
			}

			return errors.Wrap(err, "failed to find credential owner")
		}

		accessToken, err = srv.issuer.IssueForIdentity(identity)
		if err != nil {
			return errors.Wrap(err, "failed to sign access token")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to issue access token after rotation", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to refresh session")
	}

	return &usecase.TokenPairOutput{
		AccessToken:  accessToken,
		RefreshToken: issued.Raw,
	}, nil
}

// Logout ends the session behind the given refresh token. Whatever state the
// token is in, the session is gone afterwards, so failures are logged and
// absorbed.
func (srv *authService) Logout(ctx context.Context, input usecase.LogoutInput) error {
	if err := srv.credentials.Revoke(ctx, input.RefreshToken); err != nil {
		srv.log(ctx).Warn("Logout could not revoke credential", slog.Any("error", err))
	}

	return nil
}

// LogoutEverywhere revokes every session owned by the identity.
func (srv *authService) LogoutEverywhere(ctx context.Context, identityID uuid.UUID) error {
	if err := srv.credentials.RevokeAllForIdentity(ctx, identityID); err != nil {
		return errors.Wrap(err, "failed to log out everywhere")
	}

	return nil
}

// CurrentIdentity resolves the identity behind a validated access-token subject.
func (srv *authService) CurrentIdentity(ctx context.Context, email string) (*entity.Identity, error) {
	var identity *entity.Identity

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.IdentityRepo().FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "no identity for token subject")
			}

			return errors.Wrap(err, "failed to find identity by email")
		}
		identity = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return identity, nil
}
