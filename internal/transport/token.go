package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 5 * time.Minute

// ViewClaims scope a view token to one spec hash and one organisation.
type ViewClaims struct {
	Org string `json:"org"`
	jwt.RegisteredClaims
}

// TokenSigner issues short-lived HS256 view tokens for live requests.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token whose subject is the spec hash and whose id is the run.
func (s *TokenSigner) Sign(hash, org, runID string) (string, error) {
	now := s.now()
	claims := ViewClaims{
		Org: org,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   hash,
			ID:        runID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing view token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token issued by Sign.
func (s *TokenSigner) Verify(token string) (*ViewClaims, error) {
	claims := &ViewClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("verifying view token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("verifying view token: missing subject")
	}
	return claims, nil
}
