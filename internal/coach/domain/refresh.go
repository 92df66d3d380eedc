package domain

import "time"

// RefreshRecord tracks one issued refresh token by its jti. A record is
// consumed when it is exchanged for a new pair and revoked on logout.
type RefreshRecord struct {
	JTI        string
	AccountID  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	RevokedAt  *time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r RefreshRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
