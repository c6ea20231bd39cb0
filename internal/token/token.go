// Package token owns minting and verification of signed session tokens.
// A token binds a user's stable identity and email to an expiry; it is
// opaque everywhere else in the system.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the assertions carried by a session token: the registered
// sub/exp/iat set plus the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Manager signs and verifies session tokens with a process-wide HMAC
// secret, immutable after startup.
type Manager struct {
	secret []byte
	expiry time.Duration
}

// NewManager builds a Manager. A missing secret is a configuration error
// the process must refuse to start on, never a per-call fallback.
func NewManager(secret string, expiry time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is not configured")
	}
	if expiry <= 0 {
		return nil, errors.New("token: expiry must be positive")
	}
	return &Manager{secret: []byte(secret), expiry: expiry}, nil
}

// Issue mints a signed token for the user with the configured expiry.
func (m *Manager) Issue(user models.User) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
	})

	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. The three failure sub-cases stay
// distinguishable for logging: common.ErrTokenExpired,
// common.ErrInvalidToken (malformed or bad signature) and
// common.ErrInvalidClaims (missing subject).
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !t.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidClaims
	}

	return claims, nil
}
