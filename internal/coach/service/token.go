package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/ledger"
	"github.com/aussiebroadwan/coach/internal/coach/store"
	"github.com/aussiebroadwan/coach/pkg/cryptox"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
)

// ErrInvalidRefresh covers every refresh token that cannot be exchanged:
// bad signature, expired, wrong type, unknown, revoked or reused.
var ErrInvalidRefresh = fmt.Errorf("%w: invalid refresh token", domain.ErrAuthorization)

// Session is a signed-in account together with its fresh token pair.
type Session struct {
	Account domain.Account
	Tokens  jwtx.TokenPair
}

// TokenService issues, rotates and revokes token pairs.
type TokenService struct {
	Issuer   *jwtx.Issuer
	Verifier jwtx.Verifier
	Ledger   ledger.Ledger
	Store    store.Store
	Now      func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue signs a new pair for acct and records the refresh token.
func (s *TokenService) Issue(ctx context.Context, acct domain.Account) (Session, error) {
	ctx, span := tracer.Start(ctx, "TokenService.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", acct.ID))

	pair, err := s.Issuer.IssuePair(jwtx.Subject{ID: acct.ID, Email: acct.Email, Name: acct.Name})
	if err != nil {
		return Session{}, err
	}

	err = s.Ledger.Record(ctx, domain.RefreshRecord{
		JTI:       pair.RefreshID,
		AccountID: acct.ID,
		IssuedAt:  pair.RefreshIssuedAt,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return Session{}, fmt.Errorf("record refresh token: %w", err)
	}

	return Session{Account: acct, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed; it can be presented again only within the ledger's grace window.
func (s *TokenService) Refresh(ctx context.Context, raw string) (Session, error) {
	ctx, span := tracer.Start(ctx, "TokenService.Refresh")
	defer span.End()

	l := slogx.FromContext(ctx)

	claims, err := jwtx.VerifyRefresh(s.Verifier, raw)
	if err != nil {
		l.Info("refresh rejected", slog.String("reason", err.Error()))
		return Session{}, ErrInvalidRefresh
	}

	l = l.With(slog.String("account_id", claims.Subject), slog.String("jti", claims.ID))
	span.SetAttributes(attribute.String("account.id", claims.Subject))

	rec, err := s.Ledger.Consume(ctx, claims.ID, s.now())
	switch {
	case errors.Is(err, ledger.ErrReused):
		l.Warn("refresh token reused after rotation; account tokens revoked",
			slog.String("token", cryptox.FingerprintToken(raw)))
		return Session{}, ErrInvalidRefresh
	case errors.Is(err, ledger.ErrUnknown), errors.Is(err, ledger.ErrRevoked), errors.Is(err, ledger.ErrExpired):
		l.Info("refresh rejected", slog.String("reason", err.Error()))
		return Session{}, ErrInvalidRefresh
	case err != nil:
		return Session{}, err
	}

	if rec.AccountID != claims.Subject {
		l.Warn("refresh token subject does not match ledger")
		return Session{}, ErrInvalidRefresh
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidRefresh
	}
	if err != nil {
		return Session{}, err
	}

	return s.Issue(ctx, acct)
}

// Revoke invalidates a refresh token on logout. Tokens that fail
// verification are ignored so logout always succeeds.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	claims, err := jwtx.VerifyRefresh(s.Verifier, raw)
	if err != nil {
		return nil
	}

	if err := s.Ledger.Revoke(ctx, claims.ID, s.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	slogx.FromContext(ctx).Info("refresh token revoked", slog.String("account_id", claims.Subject))
	return nil
}
