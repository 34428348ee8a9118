package domain

import "errors"

var (
	// ErrSearchNotFound signals an unknown search id.
	ErrSearchNotFound = errors.New("search not found")
	// ErrPersonaInvalid signals a persona that failed construction-time validation.
	ErrPersonaInvalid = errors.New("invalid persona")
	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSearchBackend signals a search backend transport/auth failure.
	ErrSearchBackend = errors.New("search backend error")
	// ErrReasoningBackend signals a reasoning backend failure.
	ErrReasoningBackend = errors.New("reasoning backend error")
	// ErrRateLimited signals a rate limit hit on an external backend.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformedAnswer signals an unparseable reasoning backend response.
	ErrMalformedAnswer = errors.New("malformed backend answer")
)
