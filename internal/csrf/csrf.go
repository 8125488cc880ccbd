// Package csrf issues and validates per-session anti-forgery tokens. Tokens
// live in the ephemeral (session-scoped) store only and are attached to
// state-changing HTTP requests under the X-CSRF-Token header.
package csrf

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/campbellco/wolfden/internal/common"
	"github.com/campbellco/wolfden/internal/storage"
)

const (
	tokenKey = "wolf-den-csrf-token"

	// TokenSize is the token entropy in bytes; hex-encoded to 64 characters.
	TokenSize = 32
)

// stateChanging lists the HTTP verbs that require a token. Read-only verbs
// pass through untouched.
var stateChanging = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

type Guard struct {
	store storage.Store
}

// NewGuard binds the guard to a session-scoped store. Passing a durable
// store here would leak tokens across sessions; don't.
func NewGuard(store storage.Store) *Guard {
	return &Guard{store: store}
}

// Issue generates a fresh random token, overwriting any prior one, and
// returns it.
func (g *Guard) Issue(ctx context.Context) (string, error) {
	token, err := common.MakeRandHexString(TokenSize)
	if err != nil {
		return "", err
	}
	if err := g.store.Set(ctx, tokenKey, []byte(token)); err != nil {
		return "", err
	}
	return token, nil
}

// Current returns the stored token, or "" when none has been issued.
func (g *Guard) Current(ctx context.Context) (string, error) {
	b, err := g.store.Get(ctx, tokenKey)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Validate reports whether candidate matches the stored token. A missing
// stored token never validates.
func (g *Guard) Validate(ctx context.Context, candidate string) bool {
	stored, err := g.Current(ctx)
	if err != nil || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// Attach adds the current token to headers for state-changing methods
// (POST/PUT/PATCH/DELETE). Read-only requests are returned unmodified.
// Attach does not issue tokens; callers issue one at login.
func (g *Guard) Attach(ctx context.Context, method string, headers http.Header) error {
	if _, ok := stateChanging[method]; !ok {
		return nil
	}
	token, err := g.Current(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		headers.Set(common.CSRFHeaderName, token)
	}
	return nil
}

// Clear drops the stored token. Idempotent.
func (g *Guard) Clear(ctx context.Context) error {
	return g.store.Delete(ctx, tokenKey)
}
