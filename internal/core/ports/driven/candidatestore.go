package driven

import (
	"context"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// CandidateStore persists candidate history and acts as the dedup
// index. Insert is atomic with respect to the uniqueness check:
// concurrent inserts of the same external ID store exactly one record.
type CandidateStore interface {
	// Exists reports whether the external ID is already stored.
	Exists(ctx context.Context, externalID string) (bool, error)

	// Insert stores a new candidate. Returns
	// domain.ErrDuplicateCandidate when the external ID is already
	// present; callers treat that as a normal rejection, not a failure.
	Insert(ctx context.Context, candidate *domain.Candidate) error

	// Get retrieves a candidate by external ID.
	Get(ctx context.Context, externalID string) (*domain.Candidate, error)

	// UpdateReadme records fetched enrichment content.
	UpdateReadme(ctx context.Context, externalID, readme string) error

	// RecordDecision persists the scoring outcome and feature vector.
	RecordDecision(ctx context.Context, externalID string, vector []float32,
		similarity float64, decision domain.Decision, reason domain.RejectReason) error

	// AcceptedVectors returns the feature vectors of all accepted
	// candidates, used to build the profile reference.
	AcceptedVectors(ctx context.Context) ([][]float32, error)

	// ListByDecision returns candidates with the given decision,
	// most recently discovered first.
	ListByDecision(ctx context.Context, decision domain.Decision, limit int) ([]domain.Candidate, error)

	// Stats returns accept/reject counts per reason for reporting.
	Stats(ctx context.Context) (domain.StoreStats, error)
}
