package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, password_hash, name, height_cm, weight_kg,
	fitness_goal, experience_level, avatar_url, created_at, updated_at`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Name,
		nullInt(a.HeightCM), nullFloat(a.WeightKG),
		nullString(a.FitnessGoal), nullString(a.ExperienceLevel), nullString(a.AvatarURL),
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email))
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate, at time.Time) error {
	next := u.Apply(domain.Account{})

	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET
			name             = CASE WHEN ? THEN ? ELSE name END,
			height_cm        = CASE WHEN ? THEN ? ELSE height_cm END,
			weight_kg        = CASE WHEN ? THEN ? ELSE weight_kg END,
			fitness_goal     = CASE WHEN ? THEN ? ELSE fitness_goal END,
			experience_level = CASE WHEN ? THEN ? ELSE experience_level END,
			updated_at       = ?
		WHERE id = ?`,
		u.Name != nil, next.Name,
		u.HeightCM != nil, nullInt(next.HeightCM),
		u.WeightKG != nil, nullFloat(next.WeightKG),
		u.FitnessGoal != nil, nullString(next.FitnessGoal),
		u.ExperienceLevel != nil, nullString(next.ExperienceLevel),
		toMillis(at),
		id,
	)
	return requireRow(res, err)
}

func (r *accountsRepo) UpdateAvatar(ctx context.Context, id string, url *string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		nullString(url), toMillis(at), id,
	)
	return requireRow(res, err)
}

func (r *accountsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                    domain.Account
		height               sql.NullInt64
		weight               sql.NullFloat64
		goal, level, avatar  sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &height, &weight,
		&goal, &level, &avatar, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	if height.Valid {
		h := int(height.Int64)
		a.HeightCM = &h
	}
	if weight.Valid {
		w := weight.Float64
		a.WeightKG = &w
	}
	a.FitnessGoal = fromNullString(goal)
	a.ExperienceLevel = fromNullString(level)
	a.AvatarURL = fromNullString(avatar)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
