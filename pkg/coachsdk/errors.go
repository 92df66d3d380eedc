package coachsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionEnded is returned by a refresh that finished after the session
// it belonged to was signed out or replaced.
var ErrSessionEnded = errors.New("coachsdk: session ended during refresh")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coach api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }

// IsAuthError reports whether err is a 401 or 403 from the server.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.IsUnauthorized() || apiErr.IsForbidden())
}

// parseErrorResponse turns a non-2xx body into an *APIError.
func parseErrorResponse(status int, body []byte) error {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return &APIError{StatusCode: status, Message: resp.Error}
	}
	return &APIError{StatusCode: status, Message: http.StatusText(status)}
}
