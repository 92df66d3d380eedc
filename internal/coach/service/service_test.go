package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/ledger"
	"github.com/aussiebroadwan/coach/internal/coach/store/drivers/sqlite"
	"github.com/aussiebroadwan/coach/pkg/cryptox"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	clock    *clock
	store    *sqlite.Store
	accounts *AccountService
	tokens   *TokenService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	c := &clock{t: time.Now().UTC().Truncate(time.Second)}
	cfg := jwtx.Config{Secret: testSecret, Issuer: "coach", Now: c.Now}

	issuer, err := jwtx.NewIssuer(cfg)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifier(cfg)
	require.NoError(t, err)

	return &harness{
		clock: c,
		store: s,
		accounts: &AccountService{
			Store:  s,
			Hasher: cryptox.NewHasher("pepper"),
			Now:    c.Now,
		},
		tokens: &TokenService{
			Issuer:   issuer,
			Verifier: verifier,
			Ledger:   ledger.NewSQL(s, ledger.DefaultReuseGrace),
			Store:    s,
			Now:      c.Now,
		},
	}
}

func (h *harness) signup(t *testing.T, email string) Session {
	t.Helper()

	acct, err := h.accounts.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: "hunter22",
		Name:     "Test User",
	})
	require.NoError(t, err)

	sess, err := h.tokens.Issue(context.Background(), acct)
	require.NoError(t, err)
	return sess
}

func ptr[T any](v T) *T { return &v }
