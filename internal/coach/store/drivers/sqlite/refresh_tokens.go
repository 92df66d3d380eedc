package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, rec domain.RefreshRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (jti, account_id, issued_at, expires_at, consumed_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.JTI, rec.AccountID, toMillis(rec.IssuedAt), toMillis(rec.ExpiresAt),
		nullMillis(rec.ConsumedAt), nullMillis(rec.RevokedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, jti string) (domain.RefreshRecord, error) {
	var (
		rec               domain.RefreshRecord
		issued, expires   int64
		consumed, revoked sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT jti, account_id, issued_at, expires_at, consumed_at, revoked_at
		FROM refresh_tokens WHERE jti = ?`, jti,
	).Scan(&rec.JTI, &rec.AccountID, &issued, &expires, &consumed, &revoked)
	if err != nil {
		return domain.RefreshRecord{}, mapNotFound(err)
	}

	rec.IssuedAt = fromMillis(issued)
	rec.ExpiresAt = fromMillis(expires)
	rec.ConsumedAt = fromNullMillis(consumed)
	rec.RevokedAt = fromNullMillis(revoked)
	return rec, nil
}

func (r *refreshTokensRepo) MarkConsumed(ctx context.Context, jti string, at time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET consumed_at = ? WHERE jti = ? AND consumed_at IS NULL`,
		toMillis(at), jti,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, jti string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, ?) WHERE jti = ?`,
		toMillis(at), jti,
	)
	return err
}

func (r *refreshTokensRepo) RevokeAccountRefreshTokens(ctx context.Context, accountID string, at time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE account_id = ? AND revoked_at IS NULL AND expires_at > ?`,
		toMillis(at), accountID, toMillis(at),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
