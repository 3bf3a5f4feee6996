package apperr

import "errors"

// This package defines a centralized set of sentinel errors for the client.
// Services and stores return these instead of transport details, so callers
// can branch with errors.Is without caring about HTTP status codes.

var (
	// ErrUnauthorized signifies the backend rejected our credentials (HTTP 401).
	// The transport layer discards the stored bearer token before surfacing it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation signifies configuration or input failed validation
	// before any request left the client.
	ErrValidation = errors.New("validation failed")

	// ErrStream signifies the streaming endpoint failed terminally: a non-OK
	// initial response or a broken body. Individual malformed frames are not
	// this error; those are skipped silently.
	ErrStream = errors.New("stream failed")
)
