package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// readmeExcerptLimit bounds how much README text feeds the embedding.
const readmeExcerptLimit = 4000

// Scorer decides whether a candidate is relevant by comparing its
// feature vector against a reference vector. The embedding backend is
// a pluggable oracle; the scorer only requires determinism for
// identical inputs.
type Scorer struct {
	embedder   driven.EmbeddingService
	candidates driven.CandidateStore
}

// NewScorer creates a scorer backed by an embedding service.
func NewScorer(embedder driven.EmbeddingService, candidates driven.CandidateStore) *Scorer {
	return &Scorer{embedder: embedder, candidates: candidates}
}

// BuildReference constructs the active reference for a hunt. A
// non-empty session query activates session mode, which fully
// supersedes the profile for the whole run. Otherwise the profile
// reference is the mean of all accepted candidates' vectors.
func (s *Scorer) BuildReference(ctx context.Context, cfg domain.DiscoveryConfig) (domain.Reference, error) {
	if s.embedder == nil {
		return domain.Reference{}, domain.ErrEmbeddingUnavailable
	}

	if cfg.SessionQuery != "" {
		vector, err := s.embedder.Embed(ctx, cfg.SessionQuery)
		if err != nil {
			return domain.Reference{}, fmt.Errorf("embedding session query: %w", err)
		}
		return domain.SessionReference(vector, cfg.SessionThreshold), nil
	}

	vectors, err := s.candidates.AcceptedVectors(ctx)
	if err != nil {
		return domain.Reference{}, fmt.Errorf("loading accepted vectors: %w", err)
	}
	return domain.ProfileReference(domain.MeanVector(vectors), cfg.ProfileThreshold), nil
}

// Embed computes a candidate's feature vector from its name,
// description, and README excerpt.
func (s *Scorer) Embed(ctx context.Context, cand *domain.Candidate) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.embedder.Embed(ctx, FeatureText(cand))
}

// Score returns the cosine similarity of two vectors, clamped to
// [0, 1]. Mismatched or zero vectors score 0.
func (s *Scorer) Score(features, reference []float32) float64 {
	return CosineSimilarity(features, reference)
}

// Decide applies the threshold: accept at or above, reject below.
func (s *Scorer) Decide(similarity, threshold float64) domain.Decision {
	if similarity >= threshold {
		return domain.DecisionAccepted
	}
	return domain.DecisionRejected
}

// DecideAgainst scores a feature vector against a reference and
// applies its threshold. An empty reference vector (cold start: no
// accepted history yet, no session query) accepts everything so the
// profile can bootstrap.
func (s *Scorer) DecideAgainst(features []float32, ref domain.Reference) (float64, domain.Decision) {
	if len(ref.Vector) == 0 {
		return 1, domain.DecisionAccepted
	}
	sim := s.Score(features, ref.Vector)
	return sim, s.Decide(sim, ref.Threshold)
}

// FeatureText builds the embedding input for a candidate.
func FeatureText(cand *domain.Candidate) string {
	var b strings.Builder
	b.WriteString(cand.ExternalID)
	if cand.Description != "" {
		b.WriteString("\n")
		b.WriteString(cand.Description)
	}
	if cand.Language != "" {
		b.WriteString("\n")
		b.WriteString(cand.Language)
	}
	if cand.Readme != "" {
		excerpt := cand.Readme
		if len(excerpt) > readmeExcerptLimit {
			excerpt = excerpt[:readmeExcerptLimit]
		}
		b.WriteString("\n")
		b.WriteString(excerpt)
	}
	return b.String()
}

// CosineSimilarity computes cosine similarity clamped to [0, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
