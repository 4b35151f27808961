// Package identity classifies the caller of a page as a signed-in user or an
// anonymous visitor, and issues the signed cookie that carries the user id.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// noneSentinel is what the page template emits for a missing user.
const noneSentinel = "None"

// User is either a signed-in user id or an anonymous visitor.
type User struct {
	id string
}

// Anonymous is the visitor without a usable identifier.
var Anonymous = User{}

// Resolve classifies a raw page-supplied identifier. Empty, whitespace and
// the literal "None" are anonymous.
func Resolve(raw string) User {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == noneSentinel {
		return Anonymous
	}
	return User{id: raw}
}

// ID returns the user identifier, empty for anonymous visitors.
func (u User) ID() string { return u.id }

// Anonymous reports whether no user is signed in.
func (u User) Anonymous() bool { return u.id == "" }

type claims struct {
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 session tokens whose subject is the user id.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer from a shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for userID valid for ttl.
func (s *Signer) Issue(userID string, ttl time.Duration) (string, error) {
	if Resolve(userID).Anonymous() {
		return "", errors.New("cannot issue a session for an anonymous user")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Subject verifies token and returns its subject.
func (s *Signer) Subject(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signature method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// FromToken resolves the user carried by a session token. Missing, invalid or
// expired tokens are anonymous.
func (s *Signer) FromToken(token string) User {
	if token == "" {
		return Anonymous
	}
	sub, err := s.Subject(token)
	if err != nil {
		return Anonymous
	}
	return Resolve(sub)
}
