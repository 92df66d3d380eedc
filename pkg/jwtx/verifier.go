package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrNotYetValid      = errors.New("jwtx: token not yet valid")
	ErrIssuer           = errors.New("jwtx: issuer mismatch")
	ErrWrongType        = errors.New("jwtx: wrong token type")
	ErrInvalidClaim     = errors.New("jwtx: invalid claims")
)

// HS256Verifier checks tokens minted by Issuer with the same secret.
type HS256Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a verifier from the same Config the Issuer uses.
func NewVerifier(cfg Config) (*HS256Verifier, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &HS256Verifier{secret: cfg.Secret, parser: jwt.NewParser(opts...)}, nil
}

// Verify checks signature, algorithm, issuer and time claims. It does not
// look at the type claim; use VerifyAccess or VerifyRefresh for that.
func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrInvalidClaim)
	}
	return claims, nil
}

// VerifyAccess verifies raw and requires an access token.
func VerifyAccess(v Verifier, raw string) (Claims, error) {
	return verifyType(v, raw, TypeAccess)
}

// VerifyRefresh verifies raw and requires a refresh token.
func VerifyRefresh(v Verifier, raw string) (Claims, error) {
	return verifyType(v, raw, TypeRefresh)
}

func verifyType(v Verifier, raw string, want TokenType) (Claims, error) {
	c, err := v.Verify(raw)
	if err != nil {
		return Claims{}, err
	}
	if err := c.ValidateType(want); err != nil {
		return Claims{}, err
	}
	return c, nil
}

// classify maps library errors onto the package sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %w", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}

var _ Verifier = (*HS256Verifier)(nil)
