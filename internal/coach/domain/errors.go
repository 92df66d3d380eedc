package domain

import "errors"

// Error kinds shared by services and the HTTP layer. Services wrap them with
// a user facing detail, e.g. fmt.Errorf("%w: name is required", ErrValidation).
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrUpstream       = errors.New("upstream failure")
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so callers cannot tell the two apart.
var ErrInvalidCredentials = &kindError{kind: ErrAuthentication, msg: "invalid email or password"}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
