// Package securestore wraps the durable store with encryption at rest.
// Values are JSON-serialized, sealed with AES-GCM under the installation key,
// and written under an "encrypted_" namespace. Reads transparently migrate
// legacy plaintext entries left behind by earlier releases.
//
// Data held here is a local cache, not a source of truth: decryption
// failures are logged and surfaced as a miss rather than an error.
package securestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/campbellco/wolfden/internal/cryptox"
	"github.com/campbellco/wolfden/internal/logging"
	"github.com/campbellco/wolfden/internal/storage"
)

// Prefix namespaces encrypted entries apart from legacy plaintext ones.
const Prefix = "encrypted_"

// KeySource supplies the symmetric key; satisfied by keystore.Manager.
type KeySource interface {
	GetOrCreateKey(ctx context.Context) ([]byte, error)
}

type EncryptedStore struct {
	store storage.Store
	keys  KeySource
	log   logging.Logger
}

func New(store storage.Store, keys KeySource, log logging.Logger) *EncryptedStore {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &EncryptedStore{store: store, keys: keys, log: log}
}

// Set serializes value, encrypts it with a fresh nonce, and writes it under
// the namespaced key. Key-store failures propagate; there is no plaintext
// fallback.
func (s *EncryptedStore) Set(ctx context.Context, name string, value any) error {
	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return err
	}

	blob, err := cryptox.Encrypt(value, key)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", name, err)
	}

	if err := s.store.Set(ctx, Prefix+name, []byte(blob)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Get reads the namespaced entry and decrypts it into v, reporting whether a
// value was found.
//
// When no encrypted entry exists, a same-named legacy plaintext entry is
// migrated in place: re-written encrypted, then deleted. Tampered or
// undecryptable blobs count as a miss and are logged, never returned as
// corrupted data.
func (s *EncryptedStore) Get(ctx context.Context, name string, v any) (bool, error) {
	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return false, err
	}

	blob, err := s.store.Get(ctx, Prefix+name)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}

	if blob == nil {
		return s.migrateLegacy(ctx, name, key, v)
	}

	if err := cryptox.Decrypt(string(blob), key, v); err != nil {
		s.log.Warn(ctx, "discarding undecryptable entry", "name", name, "error", err)
		return false, nil
	}
	return true, nil
}

// migrateLegacy performs the one-time upgrade of a plaintext entry: validate
// it parses as JSON, write it back encrypted, delete the plaintext original,
// and decode it into v.
func (s *EncryptedStore) migrateLegacy(ctx context.Context, name string, key []byte, v any) (bool, error) {
	legacy, err := s.store.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("read legacy %s: %w", name, err)
	}
	if legacy == nil {
		return false, nil
	}

	if !json.Valid(legacy) {
		s.log.Warn(ctx, "legacy entry is not valid JSON, leaving untouched", "name", name)
		return false, nil
	}

	blob, err := cryptox.Encrypt(json.RawMessage(legacy), key)
	if err != nil {
		return false, fmt.Errorf("encrypt legacy %s: %w", name, err)
	}
	if err := s.store.Set(ctx, Prefix+name, []byte(blob)); err != nil {
		return false, fmt.Errorf("rewrite legacy %s: %w", name, err)
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return false, fmt.Errorf("delete legacy %s: %w", name, err)
	}

	s.log.Info(ctx, "migrated legacy entry to encrypted storage", "name", name)

	if err := json.Unmarshal(legacy, v); err != nil {
		return false, fmt.Errorf("decode legacy %s: %w", name, err)
	}
	return true, nil
}

// Remove deletes the namespaced entry and any legacy plaintext leftover.
func (s *EncryptedStore) Remove(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, Prefix+name); err != nil {
		return err
	}
	return s.store.Delete(ctx, name)
}

// Clear deletes every entry in the encrypted namespace. Unrelated keys in
// the underlying store are left alone.
func (s *EncryptedStore) Clear(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for k := range all {
		if strings.HasPrefix(k, Prefix) {
			if err := s.store.Delete(ctx, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListKeys returns the names of all encrypted entries, without the prefix,
// in sorted order.
func (s *EncryptedStore) ListKeys(ctx context.Context) ([]string, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(all))
	for k := range all {
		if strings.HasPrefix(k, Prefix) {
			names = append(names, strings.TrimPrefix(k, Prefix))
		}
	}
	sort.Strings(names)
	return names, nil
}
