package domain

import "time"

// Default discovery tuning values. All of them can be overridden from
// the config file; none are consulted directly by core logic, which
// only reads the DiscoveryConfig it was constructed with.
const (
	// DefaultResultCap is GitHub's fixed maximum addressable result
	// count for a single search query, across all pages.
	DefaultResultCap = 1000

	// DefaultPageSize is results per search page.
	DefaultPageSize = 100

	// DefaultSafetyMargin is the remaining-call floor below which a
	// worker suspends until the budget resets.
	DefaultSafetyMargin = 5

	// DefaultMaxRetries is the retry ceiling before a task goes
	// terminal failed.
	DefaultMaxRetries = 3

	// DefaultMaxRateWait caps how long a single task will wait on a
	// rate-limit reset before failing with ErrRateLimited.
	DefaultMaxRateWait = 10 * time.Minute

	// DefaultRequestTimeout bounds every remote call.
	DefaultRequestTimeout = 30 * time.Second
)

// DiscoveryConfig is the externally supplied configuration threaded
// through orchestrator construction. No ambient globals.
type DiscoveryConfig struct {
	// Query is the base search query (keywords plus qualifiers),
	// before the created: range filter is appended.
	Query string

	// Domain is the full time window to enumerate.
	Domain DomainRange

	// ResultCap is the API's per-query result cap.
	ResultCap int

	// PageSize is results per page, capped by the API at 100.
	PageSize int

	// SafetyMargin is the remaining-call floor per rate scope.
	SafetyMargin int

	// MaxRetries is the per-task retry ceiling.
	MaxRetries int

	// MaxRateWait is the per-call rate-limit wait ceiling.
	MaxRateWait time.Duration

	// RequestTimeout bounds each remote call.
	RequestTimeout time.Duration

	// ProfileThreshold is the accept threshold in profile mode.
	ProfileThreshold float64

	// SessionThreshold is the accept threshold in session mode.
	SessionThreshold float64

	// SessionQuery, when non-empty, activates session mode: the text
	// is embedded once and fully supersedes the profile reference.
	SessionQuery string

	// Exclusions reject candidates before scoring.
	Exclusions []Exclusion

	// Workers is the number of concurrent claim loops per task kind.
	Workers int

	// SummaryInterval is how often the orchestrator logs progress
	// counts. Zero disables the periodic summary.
	SummaryInterval time.Duration
}

// Normalise fills zero fields with defaults and returns the config.
func (c DiscoveryConfig) Normalise() DiscoveryConfig {
	if c.ResultCap <= 0 {
		c.ResultCap = DefaultResultCap
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		c.PageSize = DefaultPageSize
	}
	if c.SafetyMargin <= 0 {
		c.SafetyMargin = DefaultSafetyMargin
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRateWait <= 0 {
		c.MaxRateWait = DefaultMaxRateWait
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ProfileThreshold <= 0 {
		c.ProfileThreshold = DefaultProfileThreshold
	}
	if c.SessionThreshold <= 0 {
		c.SessionThreshold = DefaultSessionThreshold
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// Validate checks the config is usable.
func (c DiscoveryConfig) Validate() error {
	if c.Query == "" {
		return ErrInvalidInput
	}
	if !c.Domain.Upper.After(c.Domain.Lower) {
		return ErrInvalidInput
	}
	return nil
}
