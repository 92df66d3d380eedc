package httpx_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestIPKeyExtractor(t *testing.T) {
	t.Run("uses RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("ignores forwarding headers on its own", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})
}

// clientKey runs req through ClientIP and returns the rate limit key.
func clientKey(t *testing.T, trusted []string, req *http.Request) string {
	t.Helper()

	prefixes, err := httpx.ParsePrefixes(trusted)
	require.NoError(t, err)

	var key string
	httpx.ClientIP(prefixes)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		key = httpx.IPKeyExtractor(r)
	})).ServeHTTP(httptest.NewRecorder(), req)
	return key
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		realIP  string
		want    string
	}{
		{"no proxies ignores xff", nil, "198.51.100.7:4000", "203.0.113.1", "", "198.51.100.7"},
		{"no proxies ignores x-real-ip", nil, "198.51.100.7:4000", "", "203.0.113.2", "198.51.100.7"},
		{"untrusted peer ignores xff", []string{"10.0.0.0/8"}, "198.51.100.7:4000", "203.0.113.1", "", "198.51.100.7"},
		{"trusted peer uses last hop", []string{"10.0.0.0/8"}, "10.0.0.2:4000", "203.0.113.1", "", "203.0.113.1"},
		{"spoofed left hops are skipped", []string{"10.0.0.0/8"}, "10.0.0.2:4000", "1.2.3.4, 203.0.113.1", "", "203.0.113.1"},
		{"trusted hops are walked", []string{"10.0.0.0/8"}, "10.0.0.2:4000", "203.0.113.1, 10.0.0.9", "", "203.0.113.1"},
		{"garbled hop falls back to peer", []string{"10.0.0.2"}, "10.0.0.2:4000", "nonsense", "", "10.0.0.2"},
		{"trusted peer uses x-real-ip", []string{"10.0.0.2"}, "10.0.0.2:4000", "", "203.0.113.2", "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			require.Equal(t, tt.want, clientKey(t, tt.trusted, req))
		})
	}
}

func TestRotatedForwardedForSharesBucket(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.Chain(okHandler, httpx.ClientIP(nil), httpx.RateLimitByIP(cfg))

	codes := make([]int, 0, 4)
	for i := range 4 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestParsePrefixes(t *testing.T) {
	got, err := httpx.ParsePrefixes([]string{"10.0.0.0/8", " 192.168.1.4 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "192.168.1.4/32", got[1].String())

	_, err = httpx.ParsePrefixes([]string{"not-an-ip"})
	require.Error(t, err)
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	extract := httpx.JSONFieldKeyExtractor("email")

	t.Run("reads and restores the body", func(t *testing.T) {
		body := `{"email":" Alice@CSUN.edu ","password":"secret1"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

		require.Equal(t, "alice@csun.edu", extract(req))

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
	})

	t.Run("missing or non-string field", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"email":42}`, `not json`, ``} {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			require.Empty(t, extract(req), "body %q", body)
		}
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	extract := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.JSONFieldKeyExtractor("email"))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@csun.edu"}`))
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1:a@csun.edu", extract(req))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1", extract(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	send := func(h http.Handler, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("blocks requests over the burst", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitMiddleware(cfg, httpx.IPKeyExtractor)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code, "request %d", i+1)
		}

		rec := send(h, "192.168.1.1:1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), `"error"`)
	})

	t.Run("keys are tracked separately", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIP(cfg)(okHandler)

		require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusTooManyRequests, send(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusOK, send(h, "192.168.1.2:1").Code)
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code)
		}
	})
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.RateLimitByIPAndJSONField(cfg, "email")(okHandler)

	login := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+email+`"}`))
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, login("a@csun.edu"))
	require.Equal(t, http.StatusOK, login("A@csun.edu"))
	require.Equal(t, http.StatusTooManyRequests, login("a@csun.edu"))
	require.Equal(t, http.StatusOK, login("b@csun.edu"))
}

func TestRateLimitByAccount(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitByAccount(cfg)(okHandler)

	as := func(account string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		if account != "" {
			id := httpx.Identity{Kind: httpx.Authenticated}
			id.Claims = jwtx.Claims{}
			id.Claims.Subject = account
			req = req.WithContext(httpx.WithIdentity(req.Context(), id))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, as("acct-1"))
	require.Equal(t, http.StatusTooManyRequests, as("acct-1"))
	require.Equal(t, http.StatusOK, as("acct-2"))
	require.Equal(t, http.StatusOK, as(""), "anonymous callers use their own bucket")
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Setenv("RATELIMIT_TEST_REQUESTS", "50")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_TEST_BURST", "-1")

	cfg := httpx.ParseRateLimitFromEnv("TEST", def)
	require.Equal(t, 50, cfg.RequestsPerWindow)
	require.Equal(t, 10*time.Second, cfg.Window)
	require.Equal(t, 5, cfg.Burst, "invalid values keep the default")
}
