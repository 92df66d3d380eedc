// Package ledger tracks issued refresh tokens by jti so that each one can be
// exchanged exactly once.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
)

// DefaultReuseGrace is how long a consumed token may be presented again and
// still succeed. Two tabs sharing one cookie race on refresh; the loser
// arrives a few hundred milliseconds late.
const DefaultReuseGrace = 10 * time.Second

var (
	ErrUnknown = errors.New("ledger: unknown refresh token")
	ErrRevoked = errors.New("ledger: refresh token revoked")
	ErrExpired = errors.New("ledger: refresh token expired")

	// ErrReused means a consumed token came back after the grace window.
	// Every live token of the account is revoked when this is returned.
	ErrReused = errors.New("ledger: refresh token reused")
)

type Ledger interface {
	// Record stores a freshly issued refresh token.
	Record(ctx context.Context, rec domain.RefreshRecord) error

	// Consume marks jti as used and returns its record.
	Consume(ctx context.Context, jti string, now time.Time) (domain.RefreshRecord, error)

	// Revoke invalidates jti. Unknown or already revoked tokens are not an error.
	Revoke(ctx context.Context, jti string, now time.Time) error

	// Purge drops records that expired before now and reports how many.
	Purge(ctx context.Context, now time.Time) (int64, error)
}

// withinGrace reports whether a token consumed at consumedAt may still be
// presented at now.
func withinGrace(consumedAt, now time.Time, grace time.Duration) bool {
	return grace > 0 && now.Sub(consumedAt) <= grace
}
