package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campbellco/wolfden/internal/common"
)

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 8 * time.Hour

// sessionKey is the ephemeral-store entry holding the current descriptor.
const sessionKey = "wolf-den-session"

// Session is the descriptor handed to callers after login and kept in
// session-scoped storage. ExpiresAt is epoch milliseconds and is checked
// lazily on every lookup; an expired descriptor is treated as absent.
type Session struct {
	UserID    string `json:"userId"`
	Token     string `json:"token"`
	CSRFToken string `json:"csrfToken"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Expired reports whether the descriptor's deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// Claims carries the standard registered claims plus the account id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// generateToken mints an HS256 session token for userID, expiring after ttl.
func generateToken(userID string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})
	return token.SignedString(secret)
}

// parseToken verifies the signature and expiry of a session token and
// returns the embedded account id. Expiry is judged against now so callers
// and storage agree on a single clock.
func parseToken(tokenString string, secret []byte, now func() time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", err
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
