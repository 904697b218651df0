package domain

import "errors"

// Domain errors represent business logic outcomes.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateCandidate indicates the candidate's external ID is
	// already stored. A normal rejection outcome, logged not raised.
	ErrDuplicateCandidate = errors.New("duplicate candidate")

	// ErrMalformedResponse indicates the remote API returned content
	// that cannot be interpreted. The candidate is skipped, not retried.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrDomainExhausted signals the full search space has been
	// enumerated. A completion signal, not a failure.
	ErrDomainExhausted = errors.New("domain exhausted")

	// ErrQueueEmpty indicates no claimable task for the worker kind.
	ErrQueueEmpty = errors.New("queue empty")

	// ErrRateLimited indicates the API rate limit was exceeded past
	// the configured wait ceiling.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Scoring is impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrAuthRequired indicates no GitHub token is configured.
	ErrAuthRequired = errors.New("authentication required")
)
