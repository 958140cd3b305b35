package impl

import (
	"context"
	"testing"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFederationService_Upsert_CreatesFederatedIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	identity, err := env.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      "  Alice@Example.COM ",
		FirstName:  "Alice",
		LastName:   "Doe",
		ProviderID: "provider-subject-1",
		AvatarURL:  "https://cdn.example.com/alice.png",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, entity.OriginFederated, identity.Origin)
	assert.Equal(t, "provider-subject-1", identity.ProviderID)
	assert.True(t, identity.EmailVerified)
	assert.Empty(t, identity.PasswordHash)

	// The merge opens no session; the caller issues credentials afterwards.
	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	credential, err := env.credentials.Verify(ctx, issued.Raw)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, credential.IdentityID)
}

func TestFederationService_Upsert_BlankEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.federation.Upsert(context.Background(), usecase.FederatedProfileInput{
		Email:      "   ",
		ProviderID: "provider-subject-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmailRequired)
}

func TestFederationService_Upsert_RefreshesExistingProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	identity, err := env.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      "alice@example.com",
		FirstName:  "Alicia",
		AvatarURL:  "https://cdn.example.com/alicia.png",
		ProviderID: "provider-subject-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Alicia", identity.FirstName)
	assert.Equal(t, "https://cdn.example.com/alicia.png", identity.AvatarURL)

	// The local account keeps its origin and password and never picks up a
	// provider subject, so the hash and provider ID stay mutually exclusive.
	assert.Equal(t, entity.OriginLocal, identity.Origin)
	assert.NotEmpty(t, identity.PasswordHash)
	assert.Empty(t, identity.ProviderID)
	assert.False(t, identity.EmailVerified)

	_, err = env.auth.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
}

func TestFederationService_Upsert_EmptyFieldsLeaveProfileAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      "alice@example.com",
		FirstName:  "Alice",
		LastName:   "Doe",
		ProviderID: "provider-subject-1",
	})
	require.NoError(t, err)

	second, err := env.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      "alice@example.com",
		ProviderID: "provider-subject-1",
	})

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice", second.FirstName)
	assert.Equal(t, "Doe", second.LastName)
}
