package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
)

// kinds maps domain error kinds to response codes, checked in order.
var kinds = []struct {
	err  error
	code int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrAuthentication, http.StatusUnauthorized},
	{domain.ErrAuthorization, http.StatusForbidden},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUpstream, http.StatusBadGateway},
}

// writeServiceError writes err as {"error": msg}. Domain errors keep their
// detail; anything else is logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range kinds {
		if !errors.Is(err, k.err) {
			continue
		}
		if k.code == http.StatusBadGateway {
			slogx.FromContext(r.Context()).Warn("upstream failure", slog.Any("error", err))
			httpx.WriteError(w, k.code, "coach is unavailable, try again later")
			return
		}
		httpx.WriteError(w, k.code, publicMessage(err, k.err))
		return
	}

	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
}

// publicMessage strips the kind prefix that fmt.Errorf("%w: ...") adds.
func publicMessage(err, kind error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
		return rest
	}
	return msg
}

func writeBadJSON(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), httpx.ErrBadJSON.Error()+": "))
}
