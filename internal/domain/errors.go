package domain

import "errors"

var (
	// ErrInvalidCriteria signals malformed raw criteria from the extractor.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrSessionBusy signals a session lock acquisition timeout.
	ErrSessionBusy = errors.New("session busy")
	// ErrNotFound signals a missing resource (cache entry, session).
	ErrNotFound = errors.New("not found")
	// ErrGatewayUnavailable signals that the upstream listings gateway
	// failed for every attempted fallback level.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
