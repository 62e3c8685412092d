package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stellarcade/internal/domain"
)

func TestCallerTokenRoundTrip(t *testing.T) {
	if err := InitJWT("test-secret"); err != nil {
		t.Fatalf("init: %v", err)
	}
	token, err := IssueCallerToken(alice, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := ParseCallerToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != alice {
		t.Fatalf("caller = %q", got)
	}
}

func TestCallerTokenRejections(t *testing.T) {
	if err := InitJWT("test-secret"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := IssueCallerToken("", time.Minute); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("zero caller: %v", err)
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   alice,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: alice}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   alice,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, token := range map[string]string{
		"expired":   expired,
		"no expiry": noExp,
		"wrong key": otherKey,
		"garbage":   "not.a.token",
		"empty":     "",
	} {
		if _, err := ParseCallerToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestInitJWTRequiresSecret(t *testing.T) {
	if err := InitJWT(""); !errors.Is(err, ErrTokenSecretMissing) {
		t.Fatalf("expected ErrTokenSecretMissing, got %v", err)
	}
}
