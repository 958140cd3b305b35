// Package memory provides in-memory implementations of the persistence
// interfaces. They back the test suite and small single-process deployments;
// a single store-wide mutex plays the role of the database transaction, so
// operations on the same token value observe one linear history.
package memory

import (
	"context"
	"sync"
	"time"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds identities and refresh credentials in process memory and
// implements repository.TransactionManager.
type Store struct {
	mu          sync.Mutex
	identities  map[uuid.UUID]*entity.Identity
	credentials map[uuid.UUID]*entity.RefreshCredential
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		identities:  make(map[uuid.UUID]*entity.Identity),
		credentials: make(map[uuid.UUID]*entity.RefreshCredential),
	}
}

// Execute runs fn under the store-wide lock. On error the store is restored to
// its pre-call snapshot, mirroring a rolled-back database transaction.
func (s *Store) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotIdentities := make(map[uuid.UUID]*entity.Identity, len(s.identities))
	for id, identity := range s.identities {
		snapshotIdentities[id] = cloneIdentity(identity)
	}
	snapshotCredentials := make(map[uuid.UUID]*entity.RefreshCredential, len(s.credentials))
	for id, credential := range s.credentials {
		snapshotCredentials[id] = cloneCredential(credential)
	}

	if err := fn(&factory{store: s}); err != nil {
		s.identities = snapshotIdentities
		s.credentials = snapshotCredentials

		return err
	}

	return nil
}

type factory struct {
	store *Store
}

func (f *factory) IdentityRepo() repository.IdentityRepository {
	return &identityRepo{store: f.store}
}

func (f *factory) CredentialRepo() repository.CredentialRepository {
	return &credentialRepo{store: f.store}
}

// identityRepo operates on the raw maps; it is only reachable through Execute,
// which already holds the store lock.
type identityRepo struct {
	store *Store
}

func (r *identityRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Identity, error) {
	identity, ok := r.store.identities[id]
	if !ok {
		return nil, repository.ErrIdentityNotFound
	}

	return cloneIdentity(identity), nil
}

func (r *identityRepo) FindByEmail(_ context.Context, email string) (*entity.Identity, error) {
	for _, identity := range r.store.identities {
		if identity.Email == email {
			return cloneIdentity(identity), nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *identityRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, identity := range r.store.identities {
		if identity.Email == email {
			return true, nil
		}
	}

	return false, nil
}

func (r *identityRepo) Create(_ context.Context, identity *entity.Identity) error {
	for _, existing := range r.store.identities {
		if existing.Email == identity.Email {
			return domainerrors.ErrEmailAlreadyExists.WrapMessage("identity email already exists")
		}
	}

	now := time.Now()
	identity.ID = uuid.New()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.store.identities[identity.ID] = cloneIdentity(identity)

	return nil
}

func (r *identityRepo) Update(_ context.Context, identity *entity.Identity) error {
	if _, ok := r.store.identities[identity.ID]; !ok {
		return repository.ErrIdentityNotFound
	}

	identity.UpdatedAt = time.Now()
	r.store.identities[identity.ID] = cloneIdentity(identity)

	return nil
}

// credentialRepo operates on the raw maps; it is only reachable through
// Execute, which already holds the store lock.
type credentialRepo struct {
	store *Store
}

func (r *credentialRepo) Create(_ context.Context, credential *entity.RefreshCredential) error {
	for _, existing := range r.store.credentials {
		if existing.TokenHash == credential.TokenHash {
			return domainerrors.ErrInternalError.WrapMessage("refresh credential token collision")
		}
	}

	credential.ID = uuid.New()
	credential.CreatedAt = time.Now()
	r.store.credentials[credential.ID] = cloneCredential(credential)

	return nil
}

func (r *credentialRepo) FindByTokenHash(_ context.Context, tokenHash string) (*entity.RefreshCredential, error) {
	for _, credential := range r.store.credentials {
		if credential.TokenHash == tokenHash {
			return cloneCredential(credential), nil
		}
	}

	return nil, repository.ErrCredentialNotFound
}

func (r *credentialRepo) MarkRevoked(_ context.Context, id uuid.UUID) (bool, error) {
	credential, ok := r.store.credentials[id]
	if !ok || credential.Revoked {
		return false, nil
	}

	credential.Revoked = true

	return true, nil
}

func (r *credentialRepo) RevokeAllByIdentity(_ context.Context, identityID uuid.UUID) error {
	for _, credential := range r.store.credentials {
		if credential.IdentityID == identityID {
			credential.Revoked = true
		}
	}

	return nil
}

func (r *credentialRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.credentials[id]; !ok {
		return repository.ErrCredentialNotFound
	}

	delete(r.store.credentials, id)

	return nil
}

func (r *credentialRepo) DeleteByIdentity(_ context.Context, identityID uuid.UUID) error {
	for id, credential := range r.store.credentials {
		if credential.IdentityID == identityID {
			delete(r.store.credentials, id)
		}
	}

	return nil
}

func (r *credentialRepo) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, credential := range r.store.credentials {
		if credential.ExpiresAt.Before(now) {
			delete(r.store.credentials, id)
			count++
		}
	}

	return count, nil
}

func cloneIdentity(identity *entity.Identity) *entity.Identity {
	clone := *identity

	return &clone
}

func cloneCredential(credential *entity.RefreshCredential) *entity.RefreshCredential {
	clone := *credential

	return &clone
}
