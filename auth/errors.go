package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for matching denial classes with errors.Is.
var (
	ErrNotAuthenticated = errors.New("auth: not authenticated")
	ErrForbidden        = errors.New("auth: access denied")
	ErrInvalidParam     = errors.New("auth: invalid parameter")
	ErrNotFound         = errors.New("auth: not found")
)

// Denial is a structured authorization failure: a machine code, a human
// message and an HTTP-equivalent status. It is returned instead of an opaque
// error so the response layer can render it directly.
type Denial struct {
	Code    string
	Message string
	Status  int

	class error
}

// Error returns the denial message.
func (d *Denial) Error() string {
	return fmt.Sprintf("auth: denied: code=%q status=%d message=%q", d.Code, d.Status, d.Message)
}

// Unwrap returns the denial's class sentinel for errors.Is support.
func (d *Denial) Unwrap() error {
	return d.class
}

// NotLoggedIn is the denial for requests with no resolved principal.
func NotLoggedIn() *Denial {
	return &Denial{
		Code:    "not_logged_in",
		Message: "You must be logged in to access this resource.",
		Status:  http.StatusUnauthorized,
		class:   ErrNotAuthenticated,
	}
}

// Forbidden is the denial for an authenticated principal lacking the
// required role or capability.
func Forbidden() *Denial {
	return &Denial{
		Code:    "forbidden",
		Message: "You do not have permission to access this resource.",
		Status:  http.StatusForbidden,
		class:   ErrForbidden,
	}
}

// InvalidParam is the denial for a malformed request parameter.
func InvalidParam(message string) *Denial {
	return &Denial{
		Code:    "invalid_param",
		Message: message,
		Status:  http.StatusBadRequest,
		class:   ErrInvalidParam,
	}
}

// NotFound is the denial for a well-formed id that does not resolve.
func NotFound(message string) *Denial {
	return &Denial{
		Code:    "not_found",
		Message: message,
		Status:  http.StatusNotFound,
		class:   ErrNotFound,
	}
}

// AsDenial extracts a *Denial from an error chain, if present.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
