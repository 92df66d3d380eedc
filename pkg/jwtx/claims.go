package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is how long a bearer token stays usable.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is how long the refresh cookie may mint new
	// access tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType discriminates access tokens from refresh tokens. Both kinds are
// signed with the same secret so the type claim is the only thing keeping a
// refresh token out of the bearer channel.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims is the payload of both token kinds. Email and Name are only set on
// access tokens.
type Claims struct {
	jwt.RegisteredClaims

	Type  TokenType `json:"typ"`
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name,omitempty"`
}

// Subject is the account a token pair is minted for.
type Subject struct {
	ID    string
	Email string
	Name  string
}

// ValidateType returns ErrWrongType unless the claims carry want.
func (c Claims) ValidateType(want TokenType) error {
	if c.Type != want {
		return ErrWrongType
	}
	return nil
}

// Expiry returns the exp claim or the zero time.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
