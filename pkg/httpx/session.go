package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
)

// ErrNoBearer is returned by BearerToken when the request carries no bearer
// credential.
var ErrNoBearer = errors.New("httpx: missing bearer token")

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoBearer
	}
	return token, nil
}

// authenticate is shared by both session middlewares. It only accepts
// access tokens.
func authenticate(r *http.Request, v jwtx.Verifier) (Identity, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return Identity{Kind: Anonymous}, err
	}

	claims, err := jwtx.VerifyAccess(v, raw)
	if err != nil {
		return Identity{Kind: Anonymous}, err
	}
	return Identity{Kind: Authenticated, Claims: claims}, nil
}

// RequireSession rejects requests without a valid access token. A missing
// token yields 401 so the client knows to authenticate; a present but
// unusable token (bad signature, expired, refresh token) yields 403.
func RequireSession(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, v)
			switch {
			case errors.Is(err, ErrNoBearer):
				w.Header().Set("WWW-Authenticate", `Bearer realm="coach"`)
				WriteError(w, http.StatusUnauthorized, "unauthenticated")
				return
			case err != nil:
				slogx.FromContext(r.Context()).Info("access token rejected", "reason", err.Error())
				w.Header().Set("WWW-Authenticate", `Bearer realm="coach", error="invalid_token"`)
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}

			ctx := slogx.With(WithIdentity(r.Context(), id), "account_id", id.Claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession attaches an identity when the request carries a valid
// access token and proceeds anonymously otherwise.
func OptionalSession(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, v)
			if err != nil && !errors.Is(err, ErrNoBearer) {
				slogx.FromContext(r.Context()).Debug("optional session ignored token", "reason", err.Error())
			}

			ctx := WithIdentity(r.Context(), id)
			if id.Kind == Authenticated {
				ctx = slogx.With(ctx, "account_id", id.Claims.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
