package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for both unknown accounts and wrong
	// passwords. The two cases are deliberately indistinguishable so callers
	// cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid account or password")

	// ErrAccountExists rejects signup for an already-registered account id.
	ErrAccountExists = errors.New("account already exists")

	// ErrNotAuthenticated is returned by operations that need a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AccountLockedError is returned when an account has exceeded the failed
// login budget and the lockout window has not yet elapsed.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes)
}

// WeakPasswordError carries the list of strength-policy rules the candidate
// password violated.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return "password too weak: " + strings.Join(e.Reasons, "; ")
}
