package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw       string
		anonymous bool
		id        string
	}{
		{"", true, ""},
		{"   ", true, ""},
		{"None", true, ""},
		{" None ", true, ""},
		{"none", false, "none"},
		{"4f1c2b7e-user", false, "4f1c2b7e-user"},
		{" 42 ", false, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u := Resolve(tt.raw)
			if u.Anonymous() != tt.anonymous {
				t.Errorf("Resolve(%q).Anonymous() = %v, want %v", tt.raw, u.Anonymous(), tt.anonymous)
			}
			if u.ID() != tt.id {
				t.Errorf("Resolve(%q).ID() = %q, want %q", tt.raw, u.ID(), tt.id)
			}
		})
	}
}

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner(strings.Repeat("k", 32))

	token, err := s.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	u := s.FromToken(token)
	if u.Anonymous() || u.ID() != "user-1" {
		t.Errorf("FromToken() = %+v, want user-1", u)
	}
}

func TestSigner_RejectsAnonymousIssue(t *testing.T) {
	s := NewSigner(strings.Repeat("k", 32))
	for _, id := range []string{"", "None"} {
		if _, err := s.Issue(id, time.Hour); err == nil {
			t.Errorf("Issue(%q) should fail", id)
		}
	}
}

func TestSigner_InvalidTokensAreAnonymous(t *testing.T) {
	s := NewSigner(strings.Repeat("k", 32))
	other := NewSigner(strings.Repeat("x", 32))

	foreign, err := other.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	expiredSigner := NewSigner(strings.Repeat("k", 32))
	expiredSigner.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSigner.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"alg none":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if u := s.FromToken(token); !u.Anonymous() {
				t.Errorf("FromToken() = %q, want anonymous", u.ID())
			}
		})
	}
}
