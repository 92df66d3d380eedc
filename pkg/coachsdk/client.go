package coachsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// DefaultRefreshInterval refreshes one minute before a 15 minute access
// token expires.
const DefaultRefreshInterval = 14 * time.Minute

// Client holds the transport shared by sessions. Its cookie jar keeps the
// refresh cookie, which is never visible to callers.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// RefreshInterval is used by sessions created after it is set.
	RefreshInterval time.Duration
}

// NewClient returns a client with a cookie jar and a 10 second timeout.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil) // never fails with nil options

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		RefreshInterval: DefaultRefreshInterval,
	}
}

// NewSession returns an anonymous session. Call Signup, Login or Restore to
// sign in.
func (c *Client) NewSession() *Session {
	interval := c.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Session{client: c, refreshInterval: interval}
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Diag calls GET /api/diag, which makes one round trip to the provider.
func (c *Client) Diag(ctx context.Context) (*DiagResponse, error) {
	var out DiagResponse
	if err := c.get(ctx, "/api/diag", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Liveness calls GET /livez.
func (c *Client) Liveness(ctx context.Context) (*ProbeResponse, error) {
	var out ProbeResponse
	if err := c.get(ctx, "/livez", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readiness calls GET /readyz. A degraded service returns an *APIError with
// status 503.
func (c *Client) Readiness(ctx context.Context) (*ProbeResponse, error) {
	var out ProbeResponse
	if err := c.get(ctx, "/readyz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}
