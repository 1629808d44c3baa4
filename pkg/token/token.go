/**
 * @description
 * This package issues and verifies the HS256 bearer tokens that carry an
 * account identity between the client and the API. It is the in-process
 * realization of the identity gateway capability: verify a presented
 * credential and resolve it to an account id.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: JWT signing and parsing.
 * - github.com/google/uuid: Account id handling.
 */

package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrBadClaims    = errors.New("token carries malformed claims")
)

// Claims are the signed contents of an issued token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and parses HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a token manager. ttl bounds how long issued tokens stay
// valid.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given account identity.
func (m *Manager) Issue(accountID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses a presented token and resolves it to the account id and email
// it was issued for.
func (m *Manager) Verify(tokenString string) (uuid.UUID, string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, "", ErrBadClaims
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", ErrBadClaims
	}
	return accountID, claims.Email, nil
}
