package domain

import "time"

// Decision is the scoring outcome recorded for a candidate.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// RejectReason distinguishes why a candidate was rejected. Reasons are
// surfaced separately in reporting, never merged.
type RejectReason string

const (
	// RejectNone means the candidate was not rejected.
	RejectNone RejectReason = ""

	// RejectDuplicate means the external ID was already stored.
	RejectDuplicate RejectReason = "duplicate"

	// RejectFiltered means an exclusion pattern matched.
	RejectFiltered RejectReason = "filtered"

	// RejectBelowThreshold means the similarity score was too low.
	RejectBelowThreshold RejectReason = "below_threshold"
)

// Candidate is a repository surfaced by a search task. Candidates are
// persisted as history so the same repository is never processed twice.
type Candidate struct {
	// ExternalID is the repository full name (owner/repo), unique
	// within the GitHub source.
	ExternalID string

	// Owner and Repo split the external ID for API calls.
	Owner string
	Repo  string

	// Description is the repository description, possibly empty.
	Description string

	// Stars is the stargazer count at discovery time.
	Stars int

	// Language is the primary language reported by the API.
	Language string

	// DefaultBranch is used to fetch the README.
	DefaultBranch string

	// HTMLURL links to the repository page.
	HTMLURL string

	// Readme holds the fetched README excerpt, empty until the
	// fetch_detail task runs.
	Readme string

	// FeatureVector is the embedding computed lazily by the score
	// worker. Nil until scored.
	FeatureVector []float32

	// Similarity is the score against the active reference vector.
	Similarity float64

	// Decision records the scoring outcome.
	Decision Decision

	// RejectReason is set when Decision is rejected.
	RejectReason RejectReason

	// DiscoveredAt is when the search worker first saw the candidate.
	DiscoveredAt time.Time
}

// StoreStats summarises candidate outcomes for reporting.
type StoreStats struct {
	Accepted       int
	Pending        int
	Duplicates     int
	Filtered       int
	BelowThreshold int
}

// Rejected returns the total rejected count across all reasons.
func (s StoreStats) Rejected() int {
	return s.Duplicates + s.Filtered + s.BelowThreshold
}
