package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "coach:"

// consumeScript atomically marks a refresh hash as consumed.
// Returns {status, consumed_at}: 0 unknown, 1 revoked, 2 already consumed,
// 3 consumed by this call.
var consumeScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
  return {0, 0}
end
if redis.call("HEXISTS", key, "revoked_at") == 1 then
  return {1, 0}
end
local consumed = redis.call("HGET", key, "consumed_at")
if consumed then
  return {2, tonumber(consumed)}
end
redis.call("HSET", key, "consumed_at", ARGV[1])
return {3, tonumber(ARGV[1])}
`)

const (
	consumeUnknown int64 = iota
	consumeRevoked
	consumeAlreadyUsed
	consumeOK
)

// Redis keeps the ledger in Redis. Each record is a hash that expires with
// the token, and each account has a set of its jtis for family revocation.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	grace  time.Duration
}

func NewRedis(rdb redis.UniversalClient, grace time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: defaultRedisPrefix, grace: grace}
}

func (l *Redis) tokenKey(jti string) string { return l.prefix + "refresh:" + jti }

func (l *Redis) accountKey(accountID string) string {
	return l.prefix + "refresh:account:" + accountID
}

func (l *Redis) Record(ctx context.Context, rec domain.RefreshRecord) error {
	key := l.tokenKey(rec.JTI)
	acct := l.accountKey(rec.AccountID)

	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"account_id", rec.AccountID,
			"issued_at", rec.IssuedAt.UnixMilli(),
			"expires_at", rec.ExpiresAt.UnixMilli(),
		)
		p.PExpireAt(ctx, key, rec.ExpiresAt)
		p.SAdd(ctx, acct, rec.JTI)
		p.PExpireAt(ctx, acct, rec.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", rec.JTI, err)
	}
	return nil
}

func (l *Redis) Consume(ctx context.Context, jti string, now time.Time) (domain.RefreshRecord, error) {
	key := l.tokenKey(jti)

	res, err := consumeScript.Run(ctx, l.rdb, []string{key}, now.UnixMilli()).Int64Slice()
	if err != nil {
		return domain.RefreshRecord{}, fmt.Errorf("ledger: consume %s: %w", jti, err)
	}
	status, consumedAt := res[0], time.UnixMilli(res[1]).UTC()

	switch status {
	case consumeUnknown:
		return domain.RefreshRecord{}, ErrUnknown
	case consumeRevoked:
		return domain.RefreshRecord{}, ErrRevoked
	}

	rec, err := l.load(ctx, jti)
	if err != nil {
		return domain.RefreshRecord{}, err
	}
	if rec.Expired(now) {
		return domain.RefreshRecord{}, ErrExpired
	}
	rec.ConsumedAt = &consumedAt

	if status == consumeOK || withinGrace(consumedAt, now, l.grace) {
		return rec, nil
	}

	if err := l.revokeAccount(ctx, rec.AccountID, now); err != nil {
		return rec, err
	}
	return rec, ErrReused
}

func (l *Redis) Revoke(ctx context.Context, jti string, now time.Time) error {
	key := l.tokenKey(jti)

	// HSETNX on a missing key would create it without a TTL.
	n, err := l.rdb.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	return l.rdb.HSetNX(ctx, key, "revoked_at", now.UnixMilli()).Err()
}

// Purge is a no-op: Redis expires records together with their tokens.
func (l *Redis) Purge(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Ping checks connectivity for readiness probes.
func (l *Redis) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func (l *Redis) revokeAccount(ctx context.Context, accountID string, now time.Time) error {
	jtis, err := l.rdb.SMembers(ctx, l.accountKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("ledger: list account tokens: %w", err)
	}
	for _, jti := range jtis {
		if err := l.Revoke(ctx, jti, now); err != nil {
			return fmt.Errorf("ledger: revoke %s: %w", jti, err)
		}
	}
	return nil
}

func (l *Redis) load(ctx context.Context, jti string) (domain.RefreshRecord, error) {
	fields, err := l.rdb.HGetAll(ctx, l.tokenKey(jti)).Result()
	if err != nil {
		return domain.RefreshRecord{}, fmt.Errorf("ledger: load %s: %w", jti, err)
	}
	if len(fields) == 0 {
		return domain.RefreshRecord{}, ErrUnknown
	}

	rec := domain.RefreshRecord{JTI: jti, AccountID: fields["account_id"]}
	rec.IssuedAt = parseMillis(fields["issued_at"])
	rec.ExpiresAt = parseMillis(fields["expires_at"])
	if v, ok := fields["revoked_at"]; ok {
		t := parseMillis(v)
		rec.RevokedAt = &t
	}
	return rec, nil
}

func parseMillis(s string) time.Time {
	ms, _ := strconv.ParseInt(s, 10, 64)
	return time.UnixMilli(ms).UTC()
}
