package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/store"
)

// SQL keeps the ledger in the refresh_tokens table of the main store.
type SQL struct {
	store store.Store
	grace time.Duration
}

func NewSQL(s store.Store, grace time.Duration) *SQL {
	return &SQL{store: s, grace: grace}
}

func (l *SQL) Record(ctx context.Context, rec domain.RefreshRecord) error {
	return l.store.RefreshTokens().CreateRefreshToken(ctx, rec)
}

func (l *SQL) Consume(ctx context.Context, jti string, now time.Time) (domain.RefreshRecord, error) {
	var (
		rec    domain.RefreshRecord
		reused bool
	)

	err := l.store.WithTx(ctx, func(tx store.Tx) error {
		tokens := tx.RefreshTokens()

		var err error
		rec, err = tokens.GetRefreshToken(ctx, jti)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknown
		}
		if err != nil {
			return err
		}

		switch {
		case rec.RevokedAt != nil:
			return ErrRevoked
		case rec.Expired(now):
			return ErrExpired
		}

		ok, err := tokens.MarkConsumed(ctx, jti, now)
		if err != nil {
			return err
		}
		if ok {
			rec.ConsumedAt = &now
			return nil
		}

		if rec.ConsumedAt != nil && withinGrace(*rec.ConsumedAt, now, l.grace) {
			return nil
		}

		// The revocation has to commit, so report reuse after the tx.
		reused = true
		_, err = tokens.RevokeAccountRefreshTokens(ctx, rec.AccountID, now)
		return err
	})
	if err != nil {
		return domain.RefreshRecord{}, err
	}
	if reused {
		return rec, ErrReused
	}
	return rec, nil
}

func (l *SQL) Revoke(ctx context.Context, jti string, now time.Time) error {
	return l.store.RefreshTokens().RevokeRefreshToken(ctx, jti, now)
}

func (l *SQL) Purge(ctx context.Context, now time.Time) (int64, error) {
	return l.store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
}
