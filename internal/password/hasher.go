// Package password turns plaintext passwords into verifiable salted secrets
// and checks candidates against them. Stored hashes use the format
// base64(salt) + ":" + base64(derivedSecret); the plaintext is never stored.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/campbellco/wolfden/internal/common"
	"github.com/campbellco/wolfden/internal/cryptox"
)

const (
	// SaltSize is the random salt length in bytes.
	SaltSize = 16
	// SecretSize is the derived secret length in bytes (256 bits).
	SecretSize = 32
)

// Hasher derives and verifies password hashes using an injected KDF.
type Hasher struct {
	kdf cryptox.KDF
}

// NewHasher constructs a Hasher. A nil-equivalent KDF is not allowed; use
// cryptox.NewDefaultKDF() unless a test needs a cheaper one.
func NewHasher(kdf cryptox.KDF) *Hasher {
	return &Hasher{kdf: kdf}
}

// Hash generates a fresh random salt, derives a secret from the password,
// and returns the combined opaque credential string. Two calls with the same
// password yield different strings because the salt differs.
func (h *Hasher) Hash(password string) string {
	salt := common.GenerateRandByteArray(SaltSize)
	derived := h.kdf.Derive([]byte(password), salt, SecretSize)

	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(derived)
}

// Verify re-derives a secret from the candidate password and the salt
// embedded in stored, and compares the two derived secrets in constant time.
//
// Malformed stored values, including legacy formats lacking the ':'
// separator, return false, never an error. Migrating legacy records is the
// caller's concern.
func (h *Hasher) Verify(password, stored string) bool {
	saltB64, secretB64, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil || len(want) == 0 {
		return false
	}

	got := h.kdf.Derive([]byte(password), salt, len(want))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// IsLegacy reports whether a stored credential predates salted hashing.
// Legacy records carry a single base64 token with no ':' separator.
func IsLegacy(stored string) bool {
	return !strings.Contains(stored, ":")
}
