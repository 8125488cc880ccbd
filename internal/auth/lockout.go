package auth

import (
	"sync"
	"time"
)

const (
	// MaxAttempts is the failed-login budget per account.
	MaxAttempts = 5
	// LockoutWindow is how long an account stays locked after the budget is
	// spent, measured from the last failure.
	LockoutWindow = 15 * time.Minute
)

type lockout struct {
	failureCount  int
	lastFailureAt time.Time
}

// lockoutRegistry tracks failed logins per account, in process memory only.
// Read-increment-write on a counter is a critical section: concurrent login
// attempts against the same account must not lose failures.
type lockoutRegistry struct {
	mu       sync.Mutex
	accounts map[string]*lockout
}

func newLockoutRegistry() *lockoutRegistry {
	return &lockoutRegistry{accounts: make(map[string]*lockout)}
}

// remaining returns how much of the lockout window is left for the account,
// or 0 when the account is not locked. A window that has elapsed resets the
// counter as a side effect.
func (r *lockoutRegistry) remaining(accountID string, now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.accounts[accountID]
	if !ok || l.failureCount < MaxAttempts {
		return 0
	}

	elapsed := now.Sub(l.lastFailureAt)
	if elapsed >= LockoutWindow {
		delete(r.accounts, accountID)
		return 0
	}
	return LockoutWindow - elapsed
}

func (r *lockoutRegistry) recordFailure(accountID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.accounts[accountID]
	if !ok {
		l = &lockout{}
		r.accounts[accountID] = l
	}
	l.failureCount++
	l.lastFailureAt = now
}

func (r *lockoutRegistry) reset(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, accountID)
}
