// Package auth orchestrates local identity: signup, login with per-account
// lockout, session descriptors in session-scoped storage, and observer
// notification on every state transition.
//
// The whole boundary is client-side by scope: there is no server authority
// behind it, and it protects locally-held data only.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/campbellco/wolfden/internal/common"
	"github.com/campbellco/wolfden/internal/csrf"
	"github.com/campbellco/wolfden/internal/logging"
	"github.com/campbellco/wolfden/internal/password"
	"github.com/campbellco/wolfden/internal/storage"
)

// DefaultRole is assigned to accounts created through Signup.
const DefaultRole = "salesperson"

// SecretSource supplies the token-signing secret; satisfied by
// keystore.Manager.
type SecretSource interface {
	GetOrCreateSigningSecret(ctx context.Context) ([]byte, error)
}

// Observer is notified with the new session on every auth state transition,
// including nil on logout and on discovered expiry.
type Observer func(*Session)

// Authenticator implements login, signup, logout, and session lookup over a
// credential repository and session-scoped storage.
type Authenticator struct {
	creds    CredentialRepository
	hasher   *password.Hasher
	guard    *csrf.Guard
	sessions storage.Store
	secrets  SecretSource
	log      logging.Logger
	lockouts *lockoutRegistry

	// now is a test seam; defaults to time.Now.
	now func() time.Time
	ttl time.Duration

	mu        sync.Mutex
	current   *Session
	observers []Observer
}

// Option tunes an Authenticator at construction time.
type Option func(*Authenticator)

// WithSessionTTL overrides the default session lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.ttl = d
		}
	}
}

// New wires an Authenticator. sessions must be the ephemeral store: session
// descriptors and CSRF tokens never belong in durable storage.
func New(creds CredentialRepository, hasher *password.Hasher, guard *csrf.Guard, sessions storage.Store, secrets SecretSource, log logging.Logger, opts ...Option) *Authenticator {
	if log == nil {
		log = logging.NewDiscard()
	}
	a := &Authenticator{
		creds:    creds,
		hasher:   hasher,
		guard:    guard,
		sessions: sessions,
		secrets:  secrets,
		log:      log,
		lockouts: newLockoutRegistry(),
		now:      time.Now,
		ttl:      SessionTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Subscribe registers an observer for session transitions.
func (a *Authenticator) Subscribe(obs Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, obs)
}

// Login verifies the password for accountID and establishes a session.
//
// Unknown accounts and wrong passwords both fail with ErrInvalidCredentials
// and both count against the lockout budget. Once the budget is spent,
// further attempts fail with AccountLockedError until the window elapses.
// Legacy-format credentials are re-hashed and persisted on a successful
// verification only.
func (a *Authenticator) Login(ctx context.Context, accountID, pw string) (*Session, error) {
	now := a.now()

	if rem := a.lockouts.remaining(accountID, now); rem > 0 {
		return nil, &AccountLockedError{RemainingMinutes: int(math.Ceil(rem.Minutes()))}
	}

	cred, err := a.creds.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.lockouts.recordFailure(accountID, now)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !a.verify(pw, cred) {
		a.lockouts.recordFailure(accountID, now)
		return nil, ErrInvalidCredentials
	}

	if cred.Kind() == KindLegacy {
		cred.PasswordHash = a.hasher.Hash(pw)
		if err := a.creds.Update(ctx, cred); err != nil {
			// the login itself succeeded; the upgrade retries next time
			a.log.Warn(ctx, "failed to upgrade legacy credential", "account", accountID, "error", err)
		} else {
			a.log.Info(ctx, "upgraded legacy credential to salted hash", "account", accountID)
		}
	}

	a.lockouts.reset(accountID)
	return a.establishSession(ctx, cred.AccountID, now)
}

// verify checks the candidate password against the stored record, handling
// both the current salted-hash format and the legacy plaintext-equivalent
// base64 format.
func (a *Authenticator) verify(pw string, cred *Credential) bool {
	switch cred.Kind() {
	case KindLegacy:
		encoded := base64.StdEncoding.EncodeToString([]byte(pw))
		return subtle.ConstantTimeCompare([]byte(encoded), []byte(cred.PasswordHash)) == 1
	default:
		return a.hasher.Verify(pw, cred.PasswordHash)
	}
}

// Signup creates a credential record for a new account and logs it in.
// Existing accounts fail with ErrAccountExists; passwords failing the
// strength policy fail with WeakPasswordError listing every violated rule.
func (a *Authenticator) Signup(ctx context.Context, accountID, pw string, profile map[string]any) (*Session, error) {
	now := a.now()

	if _, err := a.creds.Get(ctx, accountID); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if reasons := password.ValidateStrength(pw); len(reasons) > 0 {
		return nil, &WeakPasswordError{Reasons: reasons}
	}

	cred := &Credential{
		AccountID:    accountID,
		PasswordHash: a.hasher.Hash(pw),
		Role:         DefaultRole,
		CreatedAt:    now,
		Profile:      profile,
	}
	if err := a.creds.Create(ctx, cred); err != nil {
		return nil, err
	}

	a.log.Info(ctx, "account created", "account", accountID)
	return a.establishSession(ctx, accountID, now)
}

func (a *Authenticator) establishSession(ctx context.Context, accountID string, now time.Time) (*Session, error) {
	secret, err := a.secrets.GetOrCreateSigningSecret(ctx)
	if err != nil {
		return nil, err
	}

	token, err := generateToken(accountID, secret, a.ttl, now)
	if err != nil {
		return nil, err
	}

	csrfToken, err := a.guard.Issue(ctx)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		UserID:    accountID,
		Token:     token,
		CSRFToken: csrfToken,
		ExpiresAt: now.Add(a.ttl).UnixMilli(),
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Set(ctx, sessionKey, b); err != nil {
		return nil, err
	}

	a.setCurrent(sess)
	return sess, nil
}

// Logout clears the session descriptor and the CSRF token. Idempotent;
// observers are notified only when there was a session to clear.
func (a *Authenticator) Logout(ctx context.Context) error {
	had, err := a.sessions.Get(ctx, sessionKey)
	if err != nil {
		return err
	}
	if err := a.sessions.Delete(ctx, sessionKey); err != nil {
		return err
	}
	if err := a.guard.Clear(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	wasActive := a.current != nil || had != nil
	a.current = nil
	a.mu.Unlock()

	if wasActive {
		a.notify(nil)
	}
	return nil
}

// CurrentSession returns the live session, reading the descriptor back from
// session-scoped storage when the in-memory copy is absent (e.g., after a
// reload within the same session). Expired or unverifiable descriptors are
// purged and reported as absent.
func (a *Authenticator) CurrentSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	current := a.current
	a.mu.Unlock()

	now := a.now()
	if current != nil && !current.Expired(now) {
		return current, nil
	}

	b, err := a.sessions.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if b == nil {
		a.dropCurrent(current != nil)
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		a.log.Warn(ctx, "purging unreadable session descriptor", "error", err)
		return nil, a.purge(ctx, current != nil)
	}

	if sess.Expired(now) {
		return nil, a.purge(ctx, true)
	}

	secret, err := a.secrets.GetOrCreateSigningSecret(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := parseToken(sess.Token, secret, a.now); err != nil {
		a.log.Warn(ctx, "purging session with invalid token", "error", err)
		return nil, a.purge(ctx, true)
	}

	a.mu.Lock()
	a.current = &sess
	a.mu.Unlock()
	return &sess, nil
}

// UpdateProfile merges settings into the authenticated account's profile.
func (a *Authenticator) UpdateProfile(ctx context.Context, settings map[string]any) error {
	sess, err := a.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotAuthenticated
	}

	cred, err := a.creds.Get(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if cred.Profile == nil {
		cred.Profile = make(map[string]any, len(settings))
	}
	for k, v := range settings {
		cred.Profile[k] = v
	}
	return a.creds.Update(ctx, cred)
}

// purge removes the stored descriptor and CSRF token after discovering it is
// expired or invalid, notifying observers when a transition happened.
func (a *Authenticator) purge(ctx context.Context, notify bool) error {
	if err := a.sessions.Delete(ctx, sessionKey); err != nil {
		return err
	}
	if err := a.guard.Clear(ctx); err != nil {
		return err
	}
	a.dropCurrent(notify)
	return nil
}

func (a *Authenticator) dropCurrent(notify bool) {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
	if notify {
		a.notify(nil)
	}
}

func (a *Authenticator) setCurrent(sess *Session) {
	a.mu.Lock()
	a.current = sess
	a.mu.Unlock()
	a.notify(sess)
}

func (a *Authenticator) notify(sess *Session) {
	a.mu.Lock()
	observers := make([]Observer, len(a.observers))
	copy(observers, a.observers)
	a.mu.Unlock()

	for _, obs := range observers {
		obs(sess)
	}
}
