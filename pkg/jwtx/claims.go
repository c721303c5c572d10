package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is used when the caller does not configure a lifetime.
const DefaultSessionTTL = 24 * time.Hour

// Token kinds. All cookie tokens share a signing key, so the kind is always
// checked on verify to stop one being replayed as another.
const (
	KindSession = "session"
	KindFlash   = "flash"
	KindCSRF    = "csrf"
)

// Flash is a one-shot message carried to the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Claims are the cookie token claims. A session token names the account by
// both id and email: the email alone can be released and taken by someone
// else while an old cookie is still alive.
type Claims struct {
	jwt.RegisteredClaims

	Kind     string  `json:"knd"`
	UserID   int64   `json:"uid,omitempty"`
	Remember bool    `json:"rem,omitempty"`
	Flashes  []Flash `json:"fl,omitempty"`
	CSRF     string  `json:"csrf,omitempty"`
}

// NewSessionClaims builds claims identifying the account userID with the
// given email.
func NewSessionClaims(userID int64, email, issuer string, ttl time.Duration, now time.Time) Claims {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Kind:   KindSession,
		UserID: userID,
	}
}

// NewFlashClaims wraps pending flash messages. They only need to survive one
// redirect, so the lifetime is short.
func NewFlashClaims(flashes []Flash, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
		Kind:    KindFlash,
		Flashes: flashes,
	}
}

// NewCSRFClaims binds a form token to the browser holding the cookie.
func NewCSRFClaims(token, issuer string, ttl time.Duration, now time.Time) Claims {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: KindCSRF,
		CSRF: token,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
