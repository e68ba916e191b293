package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password both map here so callers cannot tell the cases apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateIdentity indicates an email or Google subject is already
	// bound to an existing account.
	ErrDuplicateIdentity = errors.New("identity already registered")
	// ErrStrategyUnavailable indicates the requested authentication strategy
	// is not configured for this deployment.
	ErrStrategyUnavailable = errors.New("authentication strategy unavailable")
	// ErrSessionAbsent indicates a destroy targeted a session that no longer exists.
	ErrSessionAbsent = errors.New("session absent")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
