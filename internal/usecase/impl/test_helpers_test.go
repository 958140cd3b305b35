package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"
	"passport/internal/infra/auth"
	"passport/internal/infra/persistence/memory"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv assembles the services against the in-memory store so tests
// exercise the real transaction paths end to end.
type testEnv struct {
	store       *memory.Store
	cfg         *config.Config
	hasher      service.PasswordHasher
	issuer      service.AccessTokenIssuer
	credentials usecase.CredentialUsecase
	auth        usecase.AuthUsecase
	federation  usecase.FederationUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = "unit-test-secret"
	cfg.Auth = &config.AuthConfig{
		BcryptCost:      bcrypt.MinCost,
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	hasher := auth.NewBcryptHasher(cfg)

	issuer, err := auth.NewJWTIssuer(cfg)
	require.NoError(t, err)

	credentials := NewCredentialService(store, cfg, logger)
	authUsecase := NewAuthService(AuthServiceParams{
		TxManager:   store,
		Credentials: credentials,
		Hasher:      hasher,
		Issuer:      issuer,
		Config:      cfg,
		Logger:      logger,
	})
	federation := NewFederationService(store, logger)

	return &testEnv{
		store:       store,
		cfg:         cfg,
		hasher:      hasher,
		issuer:      issuer,
		credentials: credentials,
		auth:        authUsecase,
		federation:  federation,
	}
}

// seedLocalIdentity inserts a password-carrying identity directly into the store.
func (env *testEnv) seedLocalIdentity(t *testing.T, email, password string) *entity.Identity {
	t.Helper()

	hash, err := env.hasher.Hash(password)
	require.NoError(t, err)

	identity := &entity.Identity{
		Email:        email,
		PasswordHash: hash,
		Origin:       entity.OriginLocal,
	}
	err = env.store.Execute(context.Background(), func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.IdentityRepo().Create(context.Background(), identity)
	})
	require.NoError(t, err)

	return identity
}

// seedCredential inserts a credential with the given expiry and returns its raw token value.
func (env *testEnv) seedCredential(t *testing.T, identityID uuid.UUID, expiresAt time.Time) string {
	t.Helper()

	raw := uuid.NewString()
	credential := &entity.RefreshCredential{
		IdentityID: identityID,
		TokenHash:  hashToken(raw),
		ExpiresAt:  expiresAt,
	}
	err := env.store.Execute(context.Background(), func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.CredentialRepo().Create(context.Background(), credential)
	})
	require.NoError(t, err)

	return raw
}
