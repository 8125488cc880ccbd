package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/campbellco/wolfden/internal/auth"
	"github.com/campbellco/wolfden/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an account name and password and creates a new
// account. Password-policy violations are listed for the user; the password
// bytes are wiped before returning.
func (a *App) Register(ctx context.Context) error {
	accountID, err := getSimpleText(a.reader, "Enter account name", os.Stdout)
	if err != nil {
		return err
	}

	pw, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	_, err = a.auth.Signup(ctx, accountID, string(pw), nil)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			fmt.Println("Password is too weak:")
			for _, reason := range weak.Reasons {
				fmt.Println("  -", reason)
			}
		case errors.Is(err, auth.ErrAccountExists):
			fmt.Println("An account with that name already exists.")
		default:
			a.log.Error(ctx, "registration failed", "error", err)
		}
		return err
	}

	fmt.Println("Welcome to the den,", accountID)
	return nil
}

// Login prompts for credentials and authenticates. Lockout and invalid
// credential cases are reported to the user without distinguishing unknown
// accounts from wrong passwords.
func (a *App) Login(ctx context.Context) error {
	accountID, err := getSimpleText(a.reader, "Enter account name", os.Stdout)
	if err != nil {
		return err
	}

	pw, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	_, err = a.auth.Login(ctx, accountID, string(pw))
	if err != nil {
		var locked *auth.AccountLockedError
		switch {
		case errors.As(err, &locked):
			fmt.Printf("Account locked. Try again in %d minutes.\n", locked.RemainingMinutes)
		case errors.Is(err, auth.ErrInvalidCredentials):
			fmt.Println("Invalid account name or password.")
		default:
			a.log.Error(ctx, "login failed", "error", err)
		}
		return err
	}

	fmt.Println("Logged in as", accountID)
	return nil
}

// Logout ends the current session; logging out while logged out is a no-op.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.log.Error(ctx, "logout failed", "error", err)
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// Whoami prints the current session holder and expiry.
func (a *App) Whoami(ctx context.Context) error {
	sess, err := a.auth.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	expires := time.UnixMilli(sess.ExpiresAt).Local().Format(time.RFC822)
	fmt.Printf("Logged in as %s (session expires %s)\n", sess.UserID, expires)
	return nil
}
