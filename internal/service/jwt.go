package service

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stellarcade/internal/domain"
)

// DefaultTokenTTL is the lifetime of a caller token.
const DefaultTokenTTL = 24 * time.Hour

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
)

var (
	ErrTokenSecretMissing = errors.New("jwt secret is not set")
	ErrInvalidToken       = errors.New("invalid token")
)

// InitJWT sets the HMAC secret used to sign and verify caller tokens.
func InitJWT(secret string) error {
	if secret == "" {
		return ErrTokenSecretMissing
	}
	jwtMu.Lock()
	jwtSecret = []byte(secret)
	jwtMu.Unlock()
	return nil
}

func secret() ([]byte, error) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	if len(jwtSecret) == 0 {
		return nil, ErrTokenSecretMissing
	}
	return jwtSecret, nil
}

// IssueCallerToken signs a token whose subject is the caller address.
func IssueCallerToken(caller domain.Address, ttl time.Duration) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}
	if caller.IsZero() {
		return "", domain.ErrUnauthorized
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(caller),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseCallerToken verifies the token and returns the caller address it
// was issued for. The core trusts this address as the authenticated caller.
func ParseCallerToken(tokenString string) (domain.Address, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return domain.Address(claims.Subject), nil
}
