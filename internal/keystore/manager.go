// Package keystore manages the per-installation key material: the symmetric
// key that encrypts durable storage, and the secret that signs session
// tokens. Both are generated lazily on first use and persisted in the local
// durable key store; raw key bytes never travel outside this subsystem.
//
// Losing the key store makes all encrypted-at-rest data permanently
// unrecoverable. That is the intended failure mode, not a bug.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/campbellco/wolfden/internal/common"
	"github.com/campbellco/wolfden/internal/storage"
)

const (
	encryptionKeyName = "wolf-den-storage-key"
	signingSecretName = "wolf-den-signing-secret"

	// KeySize is 32 bytes: AES-256 for the storage key, HMAC-SHA256 for the
	// signing secret.
	KeySize = 32
)

// ErrKeyStoreUnavailable wraps any failure of the underlying durable store.
// Callers must propagate it; falling back to a hardcoded key would silently
// void the encryption guarantee.
var ErrKeyStoreUnavailable = errors.New("key store unavailable")

// Manager hands out the installation keys, caching them in-process after the
// first successful lookup.
type Manager struct {
	store storage.Store

	mu            sync.Mutex
	encryptionKey []byte
	signingSecret []byte
}

func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// GetOrCreateKey returns the 256-bit storage encryption key, generating and
// persisting it on first call. Idempotent within a process and across
// restarts as long as the key store survives.
func (m *Manager) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(ctx, encryptionKeyName, &m.encryptionKey)
}

// GetOrCreateSigningSecret returns the HS256 secret used for session tokens,
// with the same lifecycle as the encryption key.
func (m *Manager) GetOrCreateSigningSecret(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(ctx, signingSecretName, &m.signingSecret)
}

func (m *Manager) getOrCreateLocked(ctx context.Context, name string, cache *[]byte) ([]byte, error) {
	if *cache != nil {
		return *cache, nil
	}

	existing, err := m.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}
	if len(existing) == KeySize {
		*cache = existing
		return existing, nil
	}

	key := common.GenerateRandByteArray(KeySize)
	if err := m.store.Set(ctx, name, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	*cache = key
	return key, nil
}
