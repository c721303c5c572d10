package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the smallest HMAC key we accept (256 bits).
const MinKeyLength = 32

// HS256 signs and verifies cookie tokens with a single shared secret. There is
// one process holding the key, so asymmetric keys buy us nothing here.
type HS256 struct {
	key    []byte
	issuer string
}

var (
	_ Signer   = (*HS256)(nil)
	_ Verifier = (*HS256)(nil)
)

func NewHS256(key []byte, issuer string) (*HS256, error) {
	if len(key) < MinKeyLength {
		return nil, ErrWeakKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &HS256{key: k, issuer: issuer}, nil
}

func (h *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (h *HS256) Issuer() string { return h.issuer }

func (h *HS256) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := token.SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify validates signature, issuer, expiry and token kind.
func (h *HS256) Verify(tokenStr, kind string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(), // we validate below to return our own errors
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return h.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}
	if claims.Kind != kind {
		return Claims{}, ErrInvalidClaim
	}
	if kind == KindSession && (claims.Subject == "" || claims.UserID <= 0) {
		return Claims{}, ErrInvalidClaim
	}
	if kind == KindCSRF && claims.CSRF == "" {
		return Claims{}, ErrInvalidClaim
	}

	return claims, nil
}
