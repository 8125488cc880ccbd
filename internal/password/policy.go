package password

import (
	"strings"
	"unicode"
)

// MinLength is the minimum accepted password length on signup.
const MinLength = 12

// commonPrefixes is a small deny-list of passwords too common to accept,
// matched case-insensitively against the start of the candidate.
var commonPrefixes = []string{
	"123456",
	"password",
	"qwerty",
	"admin",
	"letmein",
	"welcome",
	"monkey",
	"dragon",
}

// ValidateStrength checks the signup strength policy and returns the list of
// violated rules in human-readable form. An empty slice means the password is
// acceptable.
func ValidateStrength(password string) []string {
	var reasons []string

	if len(password) < MinLength {
		reasons = append(reasons, "password must be at least 12 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one number")
	}
	if !hasSymbol {
		reasons = append(reasons, "password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	for _, p := range commonPrefixes {
		if strings.HasPrefix(lowered, p) {
			reasons = append(reasons, "password contains common patterns and is too weak")
			break
		}
	}

	return reasons
}
