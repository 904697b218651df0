package github

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrRepoNotFound indicates the repository was not found or is not accessible.
	ErrRepoNotFound = errors.New("github: repository not found")

	// ErrReadmeNotFound indicates the repository has no README.
	ErrReadmeNotFound = errors.New("github: readme not found")

	// ErrUnknownScope indicates a rate scope name with no budget.
	ErrUnknownScope = errors.New("github: unknown rate scope")
)

// RateLimitError reports a rate budget exhausted past the wait ceiling.
type RateLimitError struct {
	Scope     Scope
	ResetAt   time.Time
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: %s rate limit exceeded, resets at %s",
		e.Scope, e.ResetAt.Format(time.RFC3339))
}

// Is lets callers classify the error as domain.ErrRateLimited without
// importing this package.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return errors.Is(err, ErrRepoNotFound) || errors.Is(err, ErrReadmeNotFound)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsTransient checks if the error is worth retrying: server-side
// failures and plain transport errors, but not 4xx responses.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	if IsRateLimited(err) {
		return false
	}
	return err != nil
}
