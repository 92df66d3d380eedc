package coachctl

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	coachhttp "github.com/aussiebroadwan/coach/internal/coach/http"
	"github.com/aussiebroadwan/coach/internal/coach/ledger"
	"github.com/aussiebroadwan/coach/internal/coach/llm"
	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/internal/coach/store/drivers/sqlite"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
	"github.com/aussiebroadwan/coach/pkg/cryptox"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
)

// newServer runs the real router on an in-memory database.
func newServer(t *testing.T) *coachsdk.Client {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	cfg := jwtx.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), Issuer: "coach"}
	issuer, err := jwtx.NewIssuer(cfg)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifier(cfg)
	require.NoError(t, err)

	accounts := &service.AccountService{Store: st, Hasher: cryptox.NewHasher("pepper")}

	r := coachhttp.NewRouter(verifier, "test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Mock = true
	r.AccountService = accounts
	r.TokenService = &service.TokenService{
		Issuer:   issuer,
		Verifier: verifier,
		Ledger:   ledger.NewSQL(st, ledger.DefaultReuseGrace),
		Store:    st,
	}
	r.CoachService = &service.CoachService{Provider: llm.Mock{}, Accounts: accounts}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return coachsdk.NewClient(srv.URL)
}

func run(t *testing.T, client *coachsdk.Client, lines ...string) string {
	t.Helper()

	var out strings.Builder
	app := New(client, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	app.Run(context.Background())
	return out.String()
}

func TestSessionFlow(t *testing.T) {
	client := newServer(t)

	out := run(t, client,
		"help",
		"signup",
		"sam@csun.edu",
		"Sam",
		"hunter22",
		"set height_cm 180",
		"set fitness_goal run a 10k",
		"profile",
		"chat hi there",
		"logout",
		"profile",
		"exit",
	)

	require.Contains(t, out, "Available commands: signup, login")
	require.Contains(t, out, "Welcome, Sam!")
	require.Contains(t, out, "coach [sam@csun.edu] > ")
	require.Contains(t, out, "height_cm:        180")
	require.Contains(t, out, "fitness_goal:     run a 10k")
	require.Contains(t, out, "Prompt: “hi there”")
	require.Contains(t, out, "Signed out")
	require.Contains(t, out, "error: unauthenticated (sign in first)")
	require.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestLoginFailures(t *testing.T) {
	client := newServer(t)

	out := run(t, client,
		"login",
		"nobody@csun.edu",
		"hunter22",
		"signup",
		"sam@other.edu",
		"Sam",
		"hunter22",
	)

	require.Contains(t, out, "error: invalid email or password\n")
	require.Contains(t, out, "error: email must end with")
}

func TestAnonymousCommands(t *testing.T) {
	client := newServer(t)

	out := run(t, client,
		"health",
		"chat",
		"chat squats?",
		"form https://example.com/squat.jpg depth ok?",
		"set height_cm tall",
		"frobnicate",
	)

	require.Contains(t, out, "ok=true mock=true")
	require.Contains(t, out, "Usage: chat <message>")
	require.Contains(t, out, "Prompt: “squats?”")
	require.Contains(t, out, "Form check")
	require.Contains(t, out, "error: height_cm must be a whole number")
	require.Contains(t, out, "Unknown command: frobnicate")
}

func TestProfileUpdate(t *testing.T) {
	req, err := profileUpdate("weight_kg", "70.5")
	require.NoError(t, err)
	require.Equal(t, 70.5, *req.WeightKG)

	req, err = profileUpdate("experience_level", "")
	require.NoError(t, err)
	require.Equal(t, "", *req.ExperienceLevel)

	_, err = profileUpdate("email", "x@csun.edu")
	require.Error(t, err)
}
