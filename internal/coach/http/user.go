package http

import (
	"net/http"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
	"github.com/aussiebroadwan/coach/pkg/httpx"
)

// UserHandler serves the signed-in account's profile. Every request loads
// the account from the store by token subject.
type UserHandler struct {
	Accounts *service.AccountService
}

// HandleGetProfile godoc
//
//	@Summary		Get profile
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	coachsdk.UserResponse	"user"
//	@Failure		401	{object}	httpx.ErrorResponse		"Missing access token"
//	@Failure		403	{object}	httpx.ErrorResponse		"Invalid or expired access token"
//	@Failure		404	{object}	httpx.ErrorResponse		"Account no longer exists"
//	@Router			/api/user/profile [get].
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context()).AccountID()

	acct, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.UserResponse{User: toUser(acct)})
}

// HandleUpdateProfile godoc
//
//	@Summary		Update profile
//	@Description	Partial update. Omitted fields are unchanged; an empty fitness_goal or experience_level clears it.
//	@Tags			User
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.UpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	coachsdk.UserResponse			"user"
//	@Failure		400		{object}	httpx.ErrorResponse				"Validation failed"
//	@Failure		401		{object}	httpx.ErrorResponse				"Missing access token"
//	@Failure		403		{object}	httpx.ErrorResponse				"Invalid or expired access token"
//	@Router			/api/user/profile [put].
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context()).AccountID()

	var req coachsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req, 0); err != nil {
		writeBadJSON(w, err)
		return
	}

	acct, err := h.Accounts.UpdateProfile(r.Context(), id, domain.ProfileUpdate{
		Name:            req.Name,
		HeightCM:        req.HeightCM,
		WeightKG:        req.WeightKG,
		FitnessGoal:     req.FitnessGoal,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.UserResponse{User: toUser(acct)})
}

// HandleUpdateAvatar godoc
//
//	@Summary		Set avatar
//	@Description	Accepts an http(s) URL or a data:image/ URL of at most 2 MiB. An empty value clears the avatar.
//	@Tags			User
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.AvatarRequest	true	"Avatar URL"
//	@Success		200		{object}	coachsdk.UserResponse	"user"
//	@Failure		400		{object}	httpx.ErrorResponse		"Validation failed"
//	@Router			/api/user/avatar [post].
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context()).AccountID()

	var req coachsdk.AvatarRequest
	if err := httpx.DecodeJSON(w, r, &req, service.MaxAvatarURLLength+4096); err != nil {
		writeBadJSON(w, err)
		return
	}

	acct, err := h.Accounts.UpdateAvatar(r.Context(), id, req.AvatarURL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.UserResponse{User: toUser(acct)})
}
