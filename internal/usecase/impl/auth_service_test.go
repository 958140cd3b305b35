package impl

import (
	"context"
	"testing"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	output, err := env.auth.Register(ctx, usecase.RegisterInput{
		FirstName:       "Alice",
		LastName:        "Doe",
		Email:           "  Alice@Example.COM ",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
		ClientIP:        "203.0.113.7",
		UserAgent:       "test-agent",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", output.Identity.Email)
	assert.Equal(t, entity.OriginLocal, output.Identity.Origin)
	assert.NotEqual(t, "secret-pass", output.Identity.PasswordHash)

	claims, err := env.issuer.Validate(output.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)

	credential, err := env.credentials.Verify(ctx, output.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, output.Identity.ID, credential.IdentityID)
	assert.Equal(t, "203.0.113.7", credential.ClientIP)
}

func TestAuthService_Register_PasswordMismatchLeavesStoreUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "alice@example.com",
		Password:        "secret-pass",
		ConfirmPassword: "different-pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordMismatch)

	err = env.store.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		exists, err := repoFactory.IdentityRepo().ExistsByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.False(t, exists)

		return nil
	})
	require.NoError(t, err)
}

func TestAuthService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "alice@example.com",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "ALICE@EXAMPLE.COM",
		Password:        "other-pass",
		ConfirmPassword: "other-pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)
}

func TestAuthService_Register_BlankEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), usecase.RegisterInput{
		Email:           "   ",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmailRequired)
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	output, err := env.auth.Login(ctx, usecase.LoginInput{
		Email:    "Alice@Example.com",
		Password: "secret-pass",
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ID, output.Identity.ID)

	claims, err := env.issuer.Validate(output.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)

	credential, err := env.credentials.Verify(ctx, output.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, credential.IdentityID)
}

func TestAuthService_Login_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	_, wrongPassErr := env.auth.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-pass",
	})
	_, unknownErr := env.auth.Login(ctx, usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "secret-pass",
	})

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.ErrorIs(t, wrongPassErr, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_FederatedIdentityHasNoPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      "alice@example.com",
		ProviderID: "provider-subject-1",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "alice@example.com",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, usecase.RefreshInput{
		RefreshToken: registered.RefreshToken,
		ClientIP:     "198.51.100.9",
	})

	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	claims, err := env.issuer.Validate(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)

	// The retired token buys nothing on replay.
	_, err = env.auth.Refresh(ctx, usecase.RefreshInput{RefreshToken: registered.RefreshToken})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
}

func TestAuthService_Logout_AbsorbsFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.auth.Logout(ctx, usecase.LogoutInput{RefreshToken: "never-issued"}))
	require.NoError(t, env.auth.Logout(ctx, usecase.LogoutInput{RefreshToken: ""}))
}

func TestAuthService_Logout_EndsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "alice@example.com",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, usecase.LogoutInput{RefreshToken: registered.RefreshToken}))

	_, err = env.auth.Refresh(ctx, usecase.RefreshInput{RefreshToken: registered.RefreshToken})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)

	// Logging out the same session again is still fine.
	require.NoError(t, env.auth.Logout(ctx, usecase.LogoutInput{RefreshToken: registered.RefreshToken}))
}

func TestAuthService_CurrentIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	found, err := env.auth.CurrentIdentity(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, found.ID)

	_, err = env.auth.CurrentIdentity(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)
}

func TestAuthService_LogoutEverywhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, usecase.RegisterInput{
		Email:           "alice@example.com",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)

	loggedIn, err := env.auth.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.LogoutEverywhere(ctx, registered.Identity.ID))

	_, err = env.auth.Refresh(ctx, usecase.RefreshInput{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
	_, err = env.auth.Refresh(ctx, usecase.RefreshInput{RefreshToken: loggedIn.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
}
