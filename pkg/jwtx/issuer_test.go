package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

var alice = jwtx.Subject{ID: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", Email: "alice@csun.edu", Name: "Alice"}

func newPair(t *testing.T, issuedAt time.Time) (jwtx.TokenPair, *jwtx.HS256Verifier) {
	t.Helper()

	cfg := jwtx.Config{Secret: testSecret, Issuer: "coach", Now: func() time.Time { return issuedAt }}
	issuer, err := jwtx.NewIssuer(cfg)
	require.NoError(t, err)

	pair, err := issuer.IssuePair(alice)
	require.NoError(t, err)

	verifier, err := jwtx.NewVerifier(jwtx.Config{Secret: testSecret, Issuer: "coach"})
	require.NoError(t, err)
	return pair, verifier
}

func TestNewIssuerRejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewIssuer(jwtx.Config{Secret: []byte("short")})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewVerifier(jwtx.Config{})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestIssuePairRoundTrip(t *testing.T) {
	now := time.Now()
	pair, v := newPair(t, now)

	access, err := jwtx.VerifyAccess(v, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, access.Subject)
	require.Equal(t, alice.Email, access.Email)
	require.Equal(t, alice.Name, access.Name)
	require.Equal(t, "coach", access.Issuer)
	require.WithinDuration(t, now.Add(jwtx.DefaultAccessTokenTTL), access.Expiry(), time.Second)

	refresh, err := jwtx.VerifyRefresh(v, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, refresh.Subject)
	require.Equal(t, pair.RefreshID, refresh.ID)
	require.Empty(t, refresh.Email, "refresh tokens carry no profile claims")
	require.WithinDuration(t, now.Add(jwtx.DefaultRefreshTokenTTL), refresh.Expiry(), time.Second)

	require.NotEqual(t, access.ID, refresh.ID)
}

func TestIssuePairRequiresSubject(t *testing.T) {
	issuer, err := jwtx.NewIssuer(jwtx.Config{Secret: testSecret})
	require.NoError(t, err)

	_, err = issuer.IssuePair(jwtx.Subject{})
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestTypeDiscriminator(t *testing.T) {
	pair, v := newPair(t, time.Now())

	_, err := jwtx.VerifyAccess(v, pair.RefreshToken)
	require.ErrorIs(t, err, jwtx.ErrWrongType)

	_, err = jwtx.VerifyRefresh(v, pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrWrongType)
}

func TestVerifyExpired(t *testing.T) {
	for _, delta := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
		issuedAt := time.Now().Add(-jwtx.DefaultAccessTokenTTL - delta)
		pair, v := newPair(t, issuedAt)

		_, err := v.Verify(pair.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrExpired, "expired by %s", delta)
	}
}

func TestVerifyValidUntilExpiry(t *testing.T) {
	issuedAt := time.Now().Add(-jwtx.DefaultAccessTokenTTL + time.Minute)
	pair, _ := newPair(t, issuedAt)

	clock := issuedAt
	v, err := jwtx.NewVerifier(jwtx.Config{Secret: testSecret, Issuer: "coach", Now: func() time.Time { return clock }})
	require.NoError(t, err)

	for clock.Before(pair.AccessExpiresAt) {
		_, err := v.Verify(pair.AccessToken)
		require.NoError(t, err, "at %s", clock)
		clock = clock.Add(5 * time.Minute)
	}

	clock = pair.AccessExpiresAt.Add(time.Second)
	_, err = v.Verify(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	pair, _ := newPair(t, time.Now())

	other, err := jwtx.NewVerifier(jwtx.Config{Secret: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "coach"})
	require.NoError(t, err)

	_, err = other.Verify(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrInvalidSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	pair, v := newPair(t, time.Now())

	access := strings.Split(pair.AccessToken, ".")
	refresh := strings.Split(pair.RefreshToken, ".")
	require.Len(t, access, 3)

	// Refresh payload under the access signature.
	forged := strings.Join([]string{access[0], refresh[1], access[2]}, ".")
	_, err := v.Verify(forged)
	require.ErrorIs(t, err, jwtx.ErrInvalidSignature)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.ID,
			Issuer:    "coach",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: jwtx.TypeAccess,
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, v := newPair(t, time.Now())
	for _, tok := range []string{hs512, none} {
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSignature)
	}
}

func TestVerifyIssuerAndShape(t *testing.T) {
	pair, _ := newPair(t, time.Now())

	v, err := jwtx.NewVerifier(jwtx.Config{Secret: testSecret, Issuer: "someone-else"})
	require.NoError(t, err)
	_, err = v.Verify(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrIssuer)

	_, err = v.Verify("not-a-jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerifyIsDeterministic(t *testing.T) {
	pair, v := newPair(t, time.Now())

	first, err := v.Verify(pair.AccessToken)
	require.NoError(t, err)
	second, err := v.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
