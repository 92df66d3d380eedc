package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by drivers. Work that
// spans several statements goes through WithTx; a Tx cannot open another Tx.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a; ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail expects a normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// UpdateProfile writes the supplied fields of u in one statement and
	// sets updated_at. ErrNotFound when no account has id.
	UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate, at time.Time) error

	// UpdateAvatar sets or clears (nil) the avatar URL.
	UpdateAvatar(ctx context.Context, id string, url *string, at time.Time) error

	Count(ctx context.Context) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, r domain.RefreshRecord) error

	GetRefreshToken(ctx context.Context, jti string) (domain.RefreshRecord, error)

	// MarkConsumed sets consumed_at if it is still unset and reports whether
	// this call was the one that set it.
	MarkConsumed(ctx context.Context, jti string, at time.Time) (bool, error)

	// RevokeRefreshToken sets revoked_at; revoking twice is not an error.
	RevokeRefreshToken(ctx context.Context, jti string, at time.Time) error

	// RevokeAccountRefreshTokens revokes every live token of an account.
	RevokeAccountRefreshTokens(ctx context.Context, accountID string, at time.Time) (int64, error)

	// DeleteExpiredRefreshTokens removes records that expired before cutoff.
	DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}
