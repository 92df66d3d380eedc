package coachsdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RefreshCookieName is the HttpOnly cookie holding the refresh token.
const RefreshCookieName = "coach_refresh"

// refreshTimeout bounds a shared refresh, which outlives the caller that
// started it.
const refreshTimeout = 10 * time.Second

// Session holds the access token in memory and renews it through the
// refresh cookie. A request rejected with 401 or 403 triggers exactly one
// refresh and one retry. Safe for concurrent use.
type Session struct {
	client          *Client
	refreshInterval time.Duration

	mu        sync.RWMutex
	token     string
	user      *User
	refresher *Refresher
	// epoch changes on every sign in and sign out. A refresh only applies
	// its result when the epoch it started in is still current.
	epoch uint64

	// group coalesces the background loop and reactive refreshes.
	group singleflight.Group
}

// AccessToken returns the held token, or "" when signed out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the account from the latest auth response.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) SignedIn() bool {
	return s.AccessToken() != ""
}

func (s *Session) snapshot() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.epoch
}

// Do sends req with the held token. On 401 or 403 it refreshes once and,
// if that succeeds, replays req once with the new token. If the server
// rejects the refresh the session is ended and the original rejection is
// returned as an *APIError. A cancelled context or a transport failure
// during the refresh is returned as is and leaves the session alone.
// Requests with a body must set GetBody to be replayable; http.NewRequest
// does so for in-memory readers.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	token, epoch := s.snapshot()
	resp, err := s.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	resp.Body.Close()
	rejected := parseErrorResponse(resp.StatusCode, body)

	if err := s.Refresh(req.Context()); err != nil {
		switch {
		case req.Context().Err() != nil:
			return nil, req.Context().Err()
		case IsAuthError(err):
			s.endEpoch(epoch)
			return nil, rejected
		case errors.Is(err, ErrSessionEnded):
			return nil, rejected
		default:
			return nil, err
		}
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, rejected
	}
	return s.send(req, s.AccessToken())
}

func (s *Session) send(req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}

	r.Header.Del("Authorization")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return s.client.HTTPClient.Do(r)
}

// Refresh exchanges the refresh cookie for a new access token. Concurrent
// calls share one request, which is not cancelled when one of the callers
// gives up. If the session is signed out while the request is in flight
// the new token is dropped, the rotated cookie is revoked and
// ErrSessionEnded is returned.
func (s *Session) Refresh(ctx context.Context) error {
	flight := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(flight, refreshTimeout)
		defer cancel()
		return nil, s.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Session) refresh(ctx context.Context) error {
	_, epoch := s.snapshot()

	out, err := s.postAuth(ctx, "/api/auth/refresh", nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		signedOut := s.token == ""
		s.mu.Unlock()
		if signedOut {
			s.revokeCookie(ctx)
		}
		return ErrSessionEnded
	}
	s.token = out.AccessToken
	s.user = &out.User
	s.mu.Unlock()
	return nil
}

// Signup creates an account and signs in.
func (s *Session) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	out, err := s.postAuth(ctx, "/api/auth/signup", req)
	if err != nil {
		return nil, err
	}
	s.signIn(out)
	return &out.User, nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	out, err := s.postAuth(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s.signIn(out)
	return &out.User, nil
}

// Restore resumes a previous session from the refresh cookie alone.
func (s *Session) Restore(ctx context.Context) (*User, error) {
	out, err := s.postAuth(ctx, "/api/auth/refresh", nil)
	if err != nil {
		return nil, err
	}
	s.signIn(out)
	return &out.User, nil
}

// Logout ends the session locally, then revokes the refresh token on the
// server. The local state is cleared even when the server call fails.
// Calling it again is harmless.
func (s *Session) Logout(ctx context.Context) error {
	s.end()
	defer s.forgetCookie()

	req, err := s.client.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (s *Session) postAuth(ctx context.Context, path string, body any) (AuthResponse, error) {
	req, err := s.client.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return AuthResponse{}, err
	}
	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return AuthResponse{}, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// signIn stores a fresh auth response and restarts the refresh loop.
func (s *Session) signIn(out AuthResponse) {
	s.stopRefresher()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.token = out.AccessToken
	s.user = &out.User
	s.refresher = startRefresher(s.refreshInterval, s.Refresh, s.refresherFailed)
}

// end clears the token and stops the refresh loop.
func (s *Session) end() {
	s.mu.Lock()
	s.clearLocked()
	r := s.refresher
	s.refresher = nil
	s.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

// endEpoch ends the session only if it is still the one started in epoch.
func (s *Session) endEpoch(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	r := s.refresher
	s.refresher = nil
	s.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

func (s *Session) clearLocked() {
	s.epoch++
	s.token = ""
	s.user = nil
}

func (s *Session) stopRefresher() {
	s.mu.Lock()
	r := s.refresher
	s.refresher = nil
	s.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

// refresherFailed runs on the loop's goroutine, so it must not wait for it.
// Only a rejected refresh ends the session; the loop keeps ticking through
// transport failures.
func (s *Session) refresherFailed(r *Refresher, err error) bool {
	if errors.Is(err, ErrSessionEnded) {
		return true
	}
	if !IsAuthError(err) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresher == r {
		s.refresher = nil
		s.clearLocked()
	}
	return true
}

// revokeCookie logs out the refresh cookie a stale refresh left behind.
func (s *Session) revokeCookie(ctx context.Context) {
	defer s.forgetCookie()

	req, err := s.client.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return
	}
	if resp, err := s.client.HTTPClient.Do(req); err == nil {
		_ = decodeJSON(resp, nil)
	}
}

func (s *Session) forgetCookie() {
	jar := s.client.HTTPClient.Jar
	if jar == nil {
		return
	}
	u, err := url.Parse(s.client.BaseURL + "/api/auth/")
	if err != nil {
		return
	}
	jar.SetCookies(u, []*http.Cookie{{Name: RefreshCookieName, Path: "/api/auth", MaxAge: -1}})
}
