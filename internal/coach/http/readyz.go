package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/coach/pkg/coachsdk"
	"github.com/aussiebroadwan/coach/pkg/httpx"
)

// Pinger is implemented by the store and the redis ledger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database and, when configured, the redis ledger.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	coachsdk.ProbeResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	coachsdk.ProbeResponse	"A dependency is down"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db Pinger, ledger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &coachsdk.ProbeChecks{Database: "ok", Ledger: "ok"}
		status, code := "ok", http.StatusOK

		if err := db.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if ledger != nil {
			if err := ledger.Ping(ctx); err != nil {
				checks.Ledger = "error: " + err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, code, coachsdk.ProbeResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
