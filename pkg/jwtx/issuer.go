package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HS256 secret accepted, in bytes.
const MinSecretLength = 32

// ErrWeakSecret is returned by NewIssuer and NewVerifier for short secrets.
var ErrWeakSecret = errors.New("jwtx: secret shorter than 32 bytes")

// Config is shared by Issuer and HS256Verifier. The secret is loaded once at
// startup and never rotated while the process runs.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
	Now        func() time.Time
}

func (c Config) withDefaults() (Config, error) {
	if len(c.Secret) < MinSecretLength {
		return c, ErrWeakSecret
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTokenTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// TokenPair is the result of IssuePair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshID        string
	RefreshIssuedAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer mints HS256 access and refresh tokens.
type Issuer struct {
	cfg Config
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg}, nil
}

// AccessTTL reports the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

// IssuePair signs a new access token and a new refresh token for s.
func (i *Issuer) IssuePair(s Subject) (TokenPair, error) {
	if s.ID == "" {
		return TokenPair{}, fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}

	issuedAt := i.cfg.Now().UTC().Truncate(time.Second)

	access := Claims{
		RegisteredClaims: i.registered(s.ID, issuedAt, i.cfg.AccessTTL),
		Type:             TypeAccess,
		Email:            s.Email,
		Name:             s.Name,
	}
	refresh := Claims{
		RegisteredClaims: i.registered(s.ID, issuedAt, i.cfg.RefreshTTL),
		Type:             TypeRefresh,
	}

	accessToken, err := i.sign(access)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := i.sign(refresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  access.Expiry(),
		RefreshToken:     refreshToken,
		RefreshID:        refresh.ID,
		RefreshIssuedAt:  issuedAt,
		RefreshExpiresAt: refresh.Expiry(),
	}, nil
}

func (i *Issuer) registered(sub string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    i.cfg.Issuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (i *Issuer) sign(c Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", c.Type, err)
	}
	return s, nil
}
