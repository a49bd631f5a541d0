package service

import "errors"

// Errors returned by the auth flows. Handlers map these to status codes;
// anything else is an internal error.
var (
	ErrMissingFields      = errors.New("both username and password are required")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrSessionStore       = errors.New("session store error")
	ErrSessionNotFound    = errors.New("session not found")
)
