// internal/auth/token.go
//
// JWT signing and verification for player identity.
// Tokens are HS256 with "id", "username", "iat" and "exp" claims, the same
// shape the Wordle server issued.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated player carried through a request.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Signer issues and verifies tokens with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer whose tokens expire after days.
func NewSigner(secret string, days int) *Signer {
	if days <= 0 {
		days = 14
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
}

// Sign returns a token for id/username and its expiry.
func (s *Signer) Sign(id, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, exp, nil
}

// Parse verifies tok and returns the identity it names.
func (s *Signer) Parse(tok string) (Identity, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid {
		return Identity{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: id, Username: username}, nil
}
