package http

import (
	"net/http"

	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
)

// CoachHandler serves the chat endpoints. Both accept anonymous callers.
type CoachHandler struct {
	Coach *service.CoachService
	Mock  bool
}

// HandleChat godoc
//
//	@Summary		Ask the coach
//	@Description	Signed-in callers get replies personalized with their profile; anonymous callers are allowed.
//	@Tags			Coach
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.ChatRequest	true	"Message"
//	@Success		200		{object}	coachsdk.ReplyResponse	"reply"
//	@Failure		400		{object}	httpx.ErrorResponse		"Empty message"
//	@Failure		502		{object}	httpx.ErrorResponse		"Provider failure"
//	@Router			/api/chat [post].
func (h *CoachHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req coachsdk.ChatRequest
	if err := httpx.DecodeJSON(w, r, &req, 0); err != nil {
		writeBadJSON(w, err)
		return
	}

	message := req.Message
	if message == "" {
		message = req.Prompt
	}

	accountID, _ := httpx.IdentityFromContext(r.Context()).AccountID()
	reply, err := h.Coach.Chat(r.Context(), accountID, message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.ReplyResponse{Reply: reply})
}

// HandleTrainer godoc
//
//	@Summary		Ask the coach (chat-completions shape)
//	@Description	Same as /api/chat but accepts either prompt or messages[0].content.
//	@Tags			Coach
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.TrainerRequest	true	"Prompt or messages"
//	@Success		200		{object}	coachsdk.ReplyResponse	"reply"
//	@Failure		400		{object}	httpx.ErrorResponse		"Empty message"
//	@Failure		502		{object}	httpx.ErrorResponse		"Provider failure"
//	@Router			/api/trainer [post].
func (h *CoachHandler) HandleTrainer(w http.ResponseWriter, r *http.Request) {
	var req coachsdk.TrainerRequest
	if err := httpx.DecodeJSON(w, r, &req, 0); err != nil {
		writeBadJSON(w, err)
		return
	}

	message := req.Prompt
	if message == "" && len(req.Messages) > 0 {
		message = req.Messages[0].Content
	}

	accountID, _ := httpx.IdentityFromContext(r.Context()).AccountID()
	reply, err := h.Coach.Chat(r.Context(), accountID, message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.ReplyResponse{Reply: reply})
}

// HandleAnalyzeForm godoc
//
//	@Summary		Review exercise form
//	@Description	Sends a photo (http(s) or data:image/ URL, at most 8 MiB) to the coach for form feedback.
//	@Tags			Coach
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		coachsdk.AnalyzeFormRequest	true	"Image and optional prompt"
//	@Success		200		{object}	coachsdk.ReplyResponse		"reply"
//	@Failure		400		{object}	httpx.ErrorResponse			"Missing or invalid image"
//	@Failure		502		{object}	httpx.ErrorResponse			"Provider failure"
//	@Router			/api/analyze-form [post].
func (h *CoachHandler) HandleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	var req coachsdk.AnalyzeFormRequest
	if err := httpx.DecodeJSON(w, r, &req, service.MaxFormImageLength+4096); err != nil {
		writeBadJSON(w, err)
		return
	}

	accountID, _ := httpx.IdentityFromContext(r.Context()).AccountID()
	reply, err := h.Coach.AnalyzeForm(r.Context(), accountID, req.Image, req.Prompt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.ReplyResponse{Reply: reply})
}

// HandleHealth godoc
//
//	@Summary		Service health
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	coachsdk.HealthResponse	"ok, mock"
//	@Router			/api/health [get].
func (h *CoachHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, coachsdk.HealthResponse{OK: true, Mock: h.Mock})
}

// HandleDiag godoc
//
//	@Summary		Provider round trip
//	@Description	Sends a fixed prompt to the provider and returns its reply.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	coachsdk.DiagResponse	"ok, mock, reply"
//	@Failure		500	{object}	coachsdk.DiagResponse	"Provider failure"
//	@Router			/api/diag [get].
func (h *CoachHandler) HandleDiag(w http.ResponseWriter, r *http.Request) {
	reply, err := h.Coach.Chat(r.Context(), "", "Say 'pong'.")
	if err != nil {
		slogx.FromContext(r.Context()).Error("diag failed", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, coachsdk.DiagResponse{Mock: h.Mock, Error: "diag failed"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coachsdk.DiagResponse{OK: true, Mock: h.Mock, Reply: reply})
}
