package domain

import "errors"

// Sentinel errors returned by the core. The HTTP layer maps each to a
// status code in exactly one place (internal/api/error_handler.go).
var (
	// ErrValidation covers missing or malformed input fields.
	ErrValidation = errors.New("validation failed")

	// ErrEmailTaken is returned when a registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for every login failure. Unknown
	// email and wrong password deliberately collapse into this one error.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated means the request carried no usable identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the caller is authenticated but not permitted.
	ErrForbidden = errors.New("access forbidden")

	ErrReportNotFound = errors.New("report not found")
	ErrUserNotFound   = errors.New("user not found")
)
