package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

// refreshCookiePath scopes the refresh cookie to the auth endpoints so it is
// never sent with ordinary API calls.
const refreshCookiePath = "/api/auth"

// CookieConfig controls the refresh cookie attributes.
type CookieConfig struct {
	Secure bool // set in production, where the service is behind TLS
}

func (c CookieConfig) set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     coachsdk.RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expiresAt,
		MaxAge:   max(int(time.Until(expiresAt).Seconds()), 1),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     coachsdk.RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshToken returns the refresh cookie value, or "" when absent.
func refreshToken(r *http.Request) string {
	c, err := r.Cookie(coachsdk.RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
