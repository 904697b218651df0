package domain

import (
	"fmt"
	"time"
)

// MinGranularity is the smallest range the splitter will bisect.
// A range narrower than this is treated as atomic: if its match count
// still exceeds the cap, the overflow is accepted and flagged.
const MinGranularity = time.Second

// DomainRange is a half-open time window [Lower, Upper) used as a
// search query filter. Ranges form a binary-split tree; the leaves
// partition the original window with no gaps or overlaps.
type DomainRange struct {
	// Lower is the inclusive lower bound.
	Lower time.Time `json:"lower"`

	// Upper is the exclusive upper bound.
	Upper time.Time `json:"upper"`

	// EstimatedCount is the match count reported by the last probe,
	// or -1 if the range has not been probed yet.
	EstimatedCount int `json:"estimated_count"`
}

// NewDomainRange creates an unprobed range.
func NewDomainRange(lower, upper time.Time) DomainRange {
	return DomainRange{Lower: lower, Upper: upper, EstimatedCount: -1}
}

// Duration returns the width of the range.
func (r DomainRange) Duration() time.Duration {
	return r.Upper.Sub(r.Lower)
}

// Splittable reports whether the range is wide enough to bisect.
func (r DomainRange) Splittable() bool {
	return r.Duration() >= 2*MinGranularity
}

// Split bisects the range at its temporal midpoint into [Lower, mid)
// and [mid, Upper). The midpoint is truncated to whole seconds so both
// halves stay addressable by the search API's date syntax.
func (r DomainRange) Split() (DomainRange, DomainRange) {
	mid := r.Lower.Add(r.Duration() / 2).Truncate(time.Second)
	if !mid.After(r.Lower) {
		mid = r.Lower.Add(MinGranularity)
	}
	return NewDomainRange(r.Lower, mid), NewDomainRange(mid, r.Upper)
}

// Contains reports whether t falls inside the half-open window.
func (r DomainRange) Contains(t time.Time) bool {
	return !t.Before(r.Lower) && t.Before(r.Upper)
}

// String formats the range for logs and query filters.
func (r DomainRange) String() string {
	return fmt.Sprintf("[%s .. %s)", r.Lower.Format(time.RFC3339), r.Upper.Format(time.RFC3339))
}
