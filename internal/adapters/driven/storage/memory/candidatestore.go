package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// Ensure CandidateStore implements the interface.
var _ driven.CandidateStore = (*CandidateStore)(nil)

// CandidateStore is an in-memory implementation of driven.CandidateStore.
type CandidateStore struct {
	mu         sync.Mutex
	candidates map[string]*domain.Candidate
}

// NewCandidateStore creates an empty in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{
		candidates: make(map[string]*domain.Candidate),
	}
}

// Exists reports whether the external ID is already stored.
func (s *CandidateStore) Exists(_ context.Context, externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.candidates[externalID]
	return ok, nil
}

// Insert stores a new candidate; duplicates are rejected under the
// same lock that checks uniqueness.
func (s *CandidateStore) Insert(_ context.Context, candidate *domain.Candidate) error {
	if candidate == nil || candidate.ExternalID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[candidate.ExternalID]; exists {
		return domain.ErrDuplicateCandidate
	}

	if candidate.DiscoveredAt.IsZero() {
		candidate.DiscoveredAt = time.Now().UTC()
	}
	if candidate.Decision == "" {
		candidate.Decision = domain.DecisionPending
	}

	stored := *candidate
	s.candidates[candidate.ExternalID] = &stored
	return nil
}

// Get retrieves a candidate by external ID.
func (s *CandidateStore) Get(_ context.Context, externalID string) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// UpdateReadme records fetched enrichment content.
func (s *CandidateStore) UpdateReadme(_ context.Context, externalID, readme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Readme = readme
	return nil
}

// RecordDecision persists the scoring outcome and feature vector.
func (s *CandidateStore) RecordDecision(_ context.Context, externalID string,
	vector []float32, similarity float64, decision domain.Decision, reason domain.RejectReason,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	c.FeatureVector = vector
	c.Similarity = similarity
	c.Decision = decision
	c.RejectReason = reason
	return nil
}

// AcceptedVectors returns feature vectors of accepted candidates.
func (s *CandidateStore) AcceptedVectors(_ context.Context) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var vectors [][]float32
	for _, c := range s.candidates {
		if c.Decision == domain.DecisionAccepted && len(c.FeatureVector) > 0 {
			vectors = append(vectors, c.FeatureVector)
		}
	}
	return vectors, nil
}

// ListByDecision returns candidates with the given decision, most
// recently discovered first.
func (s *CandidateStore) ListByDecision(_ context.Context, decision domain.Decision, limit int) ([]domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Candidate
	for _, c := range s.candidates {
		if c.Decision == decision {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats returns accept/reject counts per reason.
func (s *CandidateStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.StoreStats
	for _, c := range s.candidates {
		switch {
		case c.Decision == domain.DecisionAccepted:
			stats.Accepted++
		case c.Decision == domain.DecisionPending:
			stats.Pending++
		case c.RejectReason == domain.RejectDuplicate:
			stats.Duplicates++
		case c.RejectReason == domain.RejectFiltered:
			stats.Filtered++
		case c.RejectReason == domain.RejectBelowThreshold:
			stats.BelowThreshold++
		}
	}
	return stats, nil
}
