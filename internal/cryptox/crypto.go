// Package cryptox holds the cryptographic primitives behind the credential
// and storage layers: a pluggable key-derivation function and an
// authenticated AES-GCM codec for JSON-serializable values.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// NonceSize is the AES-GCM nonce length in bytes. Each encrypted blob starts
// with a fresh random nonce of this size.
const NonceSize = 12

// DefaultKDFIterations is the PBKDF2 iteration count used for password
// hashing. Lowering it would weaken every stored credential, so it is a
// constant rather than configuration.
const DefaultKDFIterations = 100_000

var ErrMalformedBlob = errors.New("malformed encrypted blob")

// KDF turns a low-entropy secret (a password) into a fixed-length derived
// secret. Implementations must be deterministic for a given (secret, salt)
// pair.
type KDF interface {
	Derive(secret, salt []byte, keyLen int) []byte
}

// PBKDF2SHA256 is the default KDF: PBKDF2 over SHA-256.
type PBKDF2SHA256 struct {
	Iterations int
}

// NewDefaultKDF returns a PBKDF2-SHA256 KDF at the standard iteration count.
func NewDefaultKDF() PBKDF2SHA256 {
	return PBKDF2SHA256{Iterations: DefaultKDFIterations}
}

func (k PBKDF2SHA256) Derive(secret, salt []byte, keyLen int) []byte {
	iterations := k.Iterations
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return pbkdf2.Key(secret, salt, iterations, keyLen, sha256.New)
}

// Encrypt serializes the given value to JSON and encrypts it with AES-GCM
// under key. A new random nonce is generated per call; the result is
// base64(nonce || ciphertext+tag), one opaque string per stored value.
//
// The key must be a valid AES key length (16, 24, or 32 bytes).
func Encrypt(value any, key []byte) (string, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt: it unpacks the base64 blob, authenticates and
// decrypts the ciphertext, and unmarshals the plaintext JSON into v.
//
// Tampered, truncated, or wrong-key blobs fail the GCM authentication check
// and are reported as errors; no partial plaintext is ever produced.
func Decrypt(blob string, key []byte, v any) error {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if len(raw) < NonceSize {
		return ErrMalformedBlob
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return aesgcm, nil
}
