package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
)

// AuthHandler serves signup, login, refresh and logout. Access tokens are
// returned in the body; refresh tokens only ever travel in the cookie.
type AuthHandler struct {
	Accounts *service.AccountService
	Tokens   *service.TokenService
	Cookie   CookieConfig
}

// HandleSignup godoc
//
//	@Summary		Create an account
//	@Description	Creates an account for a @csun.edu or @my.csun.edu address and signs it in.
//	@Description	The refresh token is set as an HttpOnly cookie scoped to /api/auth.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.SignupRequest	true	"Account details"
//	@Success		201		{object}	coachsdk.AuthResponse	"user, accessToken"
//	@Failure		400		{object}	httpx.ErrorResponse		"Validation failed"
//	@Failure		409		{object}	httpx.ErrorResponse		"Email already registered"
//	@Failure		429		{object}	httpx.ErrorResponse		"Rate limited"
//	@Router			/api/auth/signup [post].
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req coachsdk.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req, 0); err != nil {
		writeBadJSON(w, err)
		return
	}

	acct, err := h.Accounts.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Profile: domain.Profile{
			HeightCM:        req.HeightCM,
			WeightKG:        req.WeightKG,
			FitnessGoal:     req.FitnessGoal,
			ExperienceLevel: req.ExperienceLevel,
		},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, acct, http.StatusCreated)
}

// HandleLogin godoc
//
//	@Summary		Sign in
//	@Description	Unknown emails and wrong passwords get the same 401 response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	coachsdk.AuthResponse	"user, accessToken"
//	@Failure		400		{object}	httpx.ErrorResponse		"Missing fields"
//	@Failure		401		{object}	httpx.ErrorResponse		"invalid email or password"
//	@Failure		429		{object}	httpx.ErrorResponse		"Rate limited"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req coachsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req, 0); err != nil {
		writeBadJSON(w, err)
		return
	}

	acct, err := h.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, acct, http.StatusOK)
}

// HandleRefresh godoc
//
//	@Summary		Rotate the refresh token
//	@Description	Exchanges the refresh cookie for a new access token and a new refresh cookie.
//	@Description	A refresh token can be exchanged once; presenting it again after a short grace window revokes every session of the account.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	coachsdk.AuthResponse	"user, accessToken"
//	@Failure		401	{object}	httpx.ErrorResponse		"No refresh cookie"
//	@Failure		403	{object}	httpx.ErrorResponse		"Invalid, expired, revoked or reused refresh token"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := refreshToken(r)
	if raw == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	sess, err := h.Tokens.Refresh(r.Context(), raw)
	if err != nil {
		// Only a rejected token ends the client session.
		if errors.Is(err, service.ErrInvalidRefresh) {
			h.Cookie.clear(w)
		}
		writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, sess, http.StatusOK)
}

// HandleLogout godoc
//
//	@Summary		Sign out
//	@Description	Revokes the refresh cookie's token when it is valid and clears the cookie. Always succeeds.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	coachsdk.OKResponse	"ok"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Tokens.Revoke(r.Context(), refreshToken(r)); err != nil {
		// The cookie is cleared regardless; a stale ledger row expires on its own.
		slogx.FromContext(r.Context()).Error("logout revoke failed", "error", err)
	}

	h.Cookie.clear(w)
	httpx.WriteJSON(w, http.StatusOK, coachsdk.OKResponse{OK: true})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, acct domain.Account, code int) {
	sess, err := h.Tokens.Issue(r.Context(), acct)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, sess, code)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, sess service.Session, code int) {
	h.Cookie.set(w, sess.Tokens.RefreshToken, sess.Tokens.RefreshExpiresAt)
	httpx.WriteJSON(w, code, coachsdk.AuthResponse{
		User:        toUser(sess.Account),
		AccessToken: sess.Tokens.AccessToken,
	})
}
