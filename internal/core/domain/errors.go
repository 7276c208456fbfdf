package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned for missing, unknown or expired sessions.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned when an optional backend (analyzer, embedder) is not configured.
	ErrUnavailable = errors.New("service unavailable")
)
