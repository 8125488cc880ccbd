package auth

import (
	"context"
	"time"

	"github.com/campbellco/wolfden/internal/common"
	"github.com/campbellco/wolfden/internal/password"
	"github.com/campbellco/wolfden/internal/securestore"
)

// CredentialKind tags the storage format of a credential record, so the
// one-time legacy upgrade path is an explicit branch rather than a string
// sniff scattered around the code.
type CredentialKind int

const (
	// KindHashed is the current format: base64(salt) ":" base64(derived).
	KindHashed CredentialKind = iota
	// KindLegacy is the pre-hashing format: a single base64 token holding a
	// plaintext-equivalent password. Upgraded on first successful login.
	KindLegacy
)

// Credential is one account's stored record. PasswordHash is never plaintext
// in the current format and is replaced wholesale on password change.
type Credential struct {
	AccountID    string         `json:"accountId"`
	PasswordHash string         `json:"passwordHash"`
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	Profile      map[string]any `json:"profile,omitempty"`
}

// Kind inspects the stored hash format.
func (c *Credential) Kind() CredentialKind {
	if password.IsLegacy(c.PasswordHash) {
		return KindLegacy
	}
	return KindHashed
}

// CredentialRepository stores account records. Implementations return
// common.ErrorNotFound for unknown accounts.
type CredentialRepository interface {
	Get(ctx context.Context, accountID string) (*Credential, error)
	Create(ctx context.Context, c *Credential) error
	Update(ctx context.Context, c *Credential) error
}

// usersKey is the securestore entry holding all credential records.
const usersKey = "wolf-den-users"

// SecureCredentialRepository keeps the records encrypted at rest as one
// document under usersKey. The population is small (a sales team), so
// whole-document read-modify-write is fine and keeps writes atomic.
type SecureCredentialRepository struct {
	store *securestore.EncryptedStore
}

func NewSecureCredentialRepository(store *securestore.EncryptedStore) *SecureCredentialRepository {
	return &SecureCredentialRepository{store: store}
}

func (r *SecureCredentialRepository) load(ctx context.Context) ([]Credential, error) {
	var list []Credential
	if _, err := r.store.Get(ctx, usersKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *SecureCredentialRepository) Get(ctx context.Context, accountID string) (*Credential, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].AccountID == accountID {
			return &list[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *SecureCredentialRepository) Create(ctx context.Context, c *Credential) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].AccountID == c.AccountID {
			return ErrAccountExists
		}
	}
	return r.store.Set(ctx, usersKey, append(list, *c))
}

func (r *SecureCredentialRepository) Update(ctx context.Context, c *Credential) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].AccountID == c.AccountID {
			list[i] = *c
			return r.store.Set(ctx, usersKey, list)
		}
	}
	return common.ErrorNotFound
}
