package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	domainerrors "passport/internal/domain/errors"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialService_IssueAndVerify_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{
		ClientIP:  "203.0.113.7",
		UserAgent: "test-agent",
	})

	require.NoError(t, err)
	require.NotEmpty(t, issued.Raw)
	assert.Equal(t, identity.ID, issued.Credential.IdentityID)
	assert.NotEqual(t, issued.Raw, issued.Credential.TokenHash)
	assert.Equal(t, "203.0.113.7", issued.Credential.ClientIP)

	credential, err := env.credentials.Verify(ctx, issued.Raw)
	require.NoError(t, err)
	assert.Equal(t, issued.Credential.ID, credential.ID)
}

func TestCredentialService_Issue_UnknownIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.credentials.Issue(context.Background(), uuid.New(), usecase.CredentialMetadata{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)
}

func TestCredentialService_Verify_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.credentials.Verify(context.Background(), "never-issued")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotFound)
}

func TestCredentialService_Verify_ExpiredTokenIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")
	raw := env.seedCredential(t, identity.ID, time.Now().Add(-time.Minute))

	_, err := env.credentials.Verify(ctx, raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The expired record is gone, so a replay no longer reveals it ever existed.
	_, err = env.credentials.Verify(ctx, raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotFound)
}

func TestCredentialService_Verify_RevokedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)
	require.NoError(t, env.credentials.Revoke(ctx, issued.Raw))

	_, err = env.credentials.Verify(ctx, issued.Raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
}

func TestCredentialService_Rotate_RetiresPredecessor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	successor, err := env.credentials.Rotate(ctx, issued.Raw, usecase.CredentialMetadata{ClientIP: "198.51.100.9"})
	require.NoError(t, err)
	assert.NotEqual(t, issued.Raw, successor.Raw)
	assert.Equal(t, identity.ID, successor.Credential.IdentityID)
	assert.Equal(t, "198.51.100.9", successor.Credential.ClientIP)

	_, err = env.credentials.Verify(ctx, issued.Raw)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)

	_, err = env.credentials.Verify(ctx, successor.Raw)
	assert.NoError(t, err)
}

func TestCredentialService_Rotate_ConcurrentExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.credentials.Rotate(ctx, issued.Raw, usecase.CredentialMetadata{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++

			continue
		}
		assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
		losses++
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, losses)
}

func TestCredentialService_Revoke_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	issued, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	require.NoError(t, env.credentials.Revoke(ctx, issued.Raw))
	require.NoError(t, env.credentials.Revoke(ctx, issued.Raw))
}

func TestCredentialService_Revoke_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.credentials.Revoke(context.Background(), "never-issued")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotFound)
}

func TestCredentialService_RevokeAllForIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")
	bob := env.seedLocalIdentity(t, "bob@example.com", "secret-pass")

	first, err := env.credentials.Issue(ctx, alice.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)
	second, err := env.credentials.Issue(ctx, alice.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)
	bystander, err := env.credentials.Issue(ctx, bob.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	require.NoError(t, env.credentials.RevokeAllForIdentity(ctx, alice.ID))

	_, err = env.credentials.Verify(ctx, first.Raw)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)
	_, err = env.credentials.Verify(ctx, second.Raw)
	assert.ErrorIs(t, err, domainerrors.ErrTokenRevoked)

	_, err = env.credentials.Verify(ctx, bystander.Raw)
	assert.NoError(t, err)
}

func TestCredentialService_SweepExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.seedLocalIdentity(t, "alice@example.com", "secret-pass")

	env.seedCredential(t, identity.ID, time.Now().Add(-time.Hour))
	env.seedCredential(t, identity.ID, time.Now().Add(-time.Minute))
	live, err := env.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{})
	require.NoError(t, err)

	swept, err := env.credentials.SweepExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	_, err = env.credentials.Verify(ctx, live.Raw)
	assert.NoError(t, err)
}
