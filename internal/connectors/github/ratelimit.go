package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scope is an independent rate budget per category of remote call.
// Exhausting one scope suspends only workers operating in that scope.
type Scope string

const (
	// ScopeSearch covers the search endpoints (30 requests/minute
	// authenticated).
	ScopeSearch Scope = "search"

	// ScopeCore covers everything else, including content fetches
	// (5000 requests/hour authenticated).
	ScopeCore Scope = "core"
)

const (
	// SearchRateLimit is the authenticated search budget per minute.
	SearchRateLimit = 30

	// CoreRateLimit is the authenticated core budget per hour.
	CoreRateLimit = 5000

	// searchProactiveRate throttles search calls to ~0.45 req/sec
	// (27/min), just under the documented budget.
	searchProactiveRate = 0.45

	// coreProactiveRate throttles core calls to ~1.2 req/sec (4320/hr).
	coreProactiveRate = 1.2

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// ScopeLimiter tracks one scope's budget with a dual strategy:
// a proactive token bucket plus reactive header tracking. A caller
// whose scope dips below the safety margin is suspended until the
// budget resets; callers in other scopes proceed unaffected.
type ScopeLimiter struct {
	scope  Scope
	bucket *rate.Limiter

	mu        sync.Mutex
	remaining int
	resetTime time.Time

	margin  int
	maxWait time.Duration
}

// NewScopeLimiter creates a limiter for one scope. margin is the
// remaining-call floor; maxWait caps a single suspension before the
// caller fails with *RateLimitError.
func NewScopeLimiter(scope Scope, margin int, maxWait time.Duration) *ScopeLimiter {
	var budget int
	var proactive float64
	switch scope {
	case ScopeSearch:
		budget, proactive = SearchRateLimit, searchProactiveRate
	default:
		budget, proactive = CoreRateLimit, coreProactiveRate
	}

	return &ScopeLimiter{
		scope:     scope,
		bucket:    rate.NewLimiter(rate.Limit(proactive), 1),
		remaining: budget, // assume full quota until headers say otherwise
		margin:    margin,
		maxWait:   maxWait,
	}
}

// Wait blocks until it's safe to make a request in this scope.
// Returns *RateLimitError when the required suspension would exceed
// the wait ceiling, and ctx.Err() on cancellation.
func (l *ScopeLimiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	d := l.SuspendDuration(time.Now())
	if d == 0 {
		return nil
	}

	if l.maxWait > 0 && d > l.maxWait {
		l.mu.Lock()
		defer l.mu.Unlock()
		return &RateLimitError{Scope: l.scope, ResetAt: l.resetTime, Remaining: l.remaining}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SuspendDuration returns how long a caller entering the scope at
// `now` would have to wait, or zero when the budget allows the call.
func (l *ScopeLimiter) SuspendDuration(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remaining >= l.margin || !now.Before(l.resetTime) {
		return 0
	}
	return l.resetTime.Sub(now)
}

// UpdateFromResponse refreshes budget state from response headers.
func (l *ScopeLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			l.remaining = val
		}
	}
	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			l.resetTime = time.Unix(val, 0)
		}
	}
	// Secondary rate limits answer with Retry-After instead of a
	// reset timestamp.
	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			l.remaining = 0
			l.resetTime = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
}

// Remaining returns the current remaining requests.
func (l *ScopeLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// ResetTime returns the budget reset time.
func (l *ScopeLimiter) ResetTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetTime
}

// RateLimiter holds the per-scope limiters for one API client.
type RateLimiter struct {
	scopes map[Scope]*ScopeLimiter
}

// NewRateLimiter creates limiters for the search and core scopes.
func NewRateLimiter(margin int, maxWait time.Duration) *RateLimiter {
	return &RateLimiter{
		scopes: map[Scope]*ScopeLimiter{
			ScopeSearch: NewScopeLimiter(ScopeSearch, margin, maxWait),
			ScopeCore:   NewScopeLimiter(ScopeCore, margin, maxWait),
		},
	}
}

// Scope returns the limiter for a scope.
func (r *RateLimiter) Scope(s Scope) *ScopeLimiter {
	return r.scopes[s]
}

// Wait suspends the caller within the given scope only.
func (r *RateLimiter) Wait(ctx context.Context, s Scope) error {
	l, ok := r.scopes[s]
	if !ok {
		return ErrUnknownScope
	}
	return l.Wait(ctx)
}

// Update refreshes one scope's budget from response headers.
func (r *RateLimiter) Update(s Scope, resp *http.Response) {
	if l, ok := r.scopes[s]; ok {
		l.UpdateFromResponse(resp)
	}
}
