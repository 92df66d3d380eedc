package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/ledger"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestIssueRecordsRefreshToken(t *testing.T) {
	h := newHarness(t)
	sess := h.signup(t, "issue@csun.edu")

	claims, err := jwtx.VerifyAccess(h.tokens.Verifier, sess.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, sess.Account.ID, claims.Subject)
	require.Equal(t, "issue@csun.edu", claims.Email)

	rec, err := h.store.RefreshTokens().GetRefreshToken(context.Background(), sess.Tokens.RefreshID)
	require.NoError(t, err)
	require.Equal(t, sess.Account.ID, rec.AccountID)
	require.Nil(t, rec.ConsumedAt)
}

func TestRefreshRotates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := h.signup(t, "rotate@csun.edu")

	h.clock.Advance(time.Second)
	next, err := h.tokens.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, sess.Account.ID, next.Account.ID)
	require.NotEqual(t, sess.Tokens.RefreshID, next.Tokens.RefreshID)
	require.NotEqual(t, sess.Tokens.AccessToken, next.Tokens.AccessToken)

	t.Run("old token within grace still works", func(t *testing.T) {
		h.clock.Advance(2 * time.Second)
		_, err := h.tokens.Refresh(ctx, sess.Tokens.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("old token after grace is rejected and revokes the family", func(t *testing.T) {
		h.clock.Advance(ledger.DefaultReuseGrace + time.Second)
		_, err := h.tokens.Refresh(ctx, sess.Tokens.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
		require.ErrorIs(t, err, domain.ErrAuthorization)

		_, err = h.tokens.Refresh(ctx, next.Tokens.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newHarness(t)
	sess := h.signup(t, "wrongtype@csun.edu")

	_, err := h.tokens.Refresh(context.Background(), sess.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsExpired(t *testing.T) {
	h := newHarness(t)
	sess := h.signup(t, "expired@csun.edu")

	h.clock.Advance(jwtx.DefaultRefreshTokenTTL + time.Minute)
	_, err := h.tokens.Refresh(context.Background(), sess.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := h.signup(t, "logout@csun.edu")

	require.NoError(t, h.tokens.Revoke(ctx, sess.Tokens.RefreshToken))
	require.NoError(t, h.tokens.Revoke(ctx, sess.Tokens.RefreshToken))
	require.NoError(t, h.tokens.Revoke(ctx, ""))
	require.NoError(t, h.tokens.Revoke(ctx, "garbage"))

	_, err := h.tokens.Refresh(ctx, sess.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
