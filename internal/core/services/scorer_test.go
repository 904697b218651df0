package services

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite clamps to zero", a: []float32{1, 0}, b: []float32{-1, 0}, want: 0},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScorer_DecideThresholdBoundary(t *testing.T) {
	scorer := NewScorer(&mockEmbedder{}, memory.NewCandidateStore())

	assert.Equal(t, domain.DecisionAccepted, scorer.Decide(0.4, 0.4))
	assert.Equal(t, domain.DecisionRejected, scorer.Decide(0.39999, 0.4))
	assert.Equal(t, domain.DecisionAccepted, scorer.Decide(1, 0.6))
}

// A similarity of 0.55 passes the default profile threshold but not
// the stricter session threshold.
func TestScorer_ModeThresholdsDiverge(t *testing.T) {
	scorer := NewScorer(&mockEmbedder{}, memory.NewCandidateStore())

	// Unit vectors at an angle whose cosine is 0.55
	features := []float32{0.55, float32(math.Sqrt(1 - 0.55*0.55))}
	reference := []float32{1, 0}

	sim, decision := scorer.DecideAgainst(features,
		domain.ProfileReference(reference, domain.DefaultProfileThreshold))
	assert.InDelta(t, 0.55, sim, 1e-6)
	assert.Equal(t, domain.DecisionAccepted, decision)

	sim, decision = scorer.DecideAgainst(features,
		domain.SessionReference(reference, domain.DefaultSessionThreshold))
	assert.InDelta(t, 0.55, sim, 1e-6)
	assert.Equal(t, domain.DecisionRejected, decision)
}

func TestScorer_ColdStartAcceptsEverything(t *testing.T) {
	scorer := NewScorer(&mockEmbedder{}, memory.NewCandidateStore())

	ref := domain.ProfileReference(nil, domain.DefaultProfileThreshold)

	sim, decision := scorer.DecideAgainst([]float32{0.1, 0.9}, ref)
	assert.Equal(t, float64(1), sim)
	assert.Equal(t, domain.DecisionAccepted, decision)
}

func TestScorer_BuildReference_SessionSupersedesProfile(t *testing.T) {
	ctx := context.Background()
	candidates := memory.NewCandidateStore()

	// Store accepted history that a profile reference would pick up
	cand := &domain.Candidate{ExternalID: "owner/history"}
	require.NoError(t, candidates.Insert(ctx, cand))
	require.NoError(t, candidates.RecordDecision(ctx, "owner/history",
		[]float32{0, 1}, 0.9, domain.DecisionAccepted, domain.RejectNone))

	embedder := &mockEmbedder{vectors: map[string][]float32{
		"terminal ui": {1, 0},
	}}
	scorer := NewScorer(embedder, candidates)

	ref, err := scorer.BuildReference(ctx, domain.DiscoveryConfig{
		SessionQuery:     "terminal ui",
		SessionThreshold: 0.6,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeSession, ref.Mode)
	assert.Equal(t, []float32{1, 0}, ref.Vector)
	assert.InDelta(t, 0.6, ref.Threshold, 1e-9)
}

func TestScorer_BuildReference_ProfileFromHistory(t *testing.T) {
	ctx := context.Background()
	candidates := memory.NewCandidateStore()

	for i, vector := range [][]float32{{1, 0}, {0, 1}} {
		id := "owner/repo" + string(rune('a'+i))
		require.NoError(t, candidates.Insert(ctx, &domain.Candidate{ExternalID: id}))
		require.NoError(t, candidates.RecordDecision(ctx, id,
			vector, 0.9, domain.DecisionAccepted, domain.RejectNone))
	}

	scorer := NewScorer(&mockEmbedder{}, candidates)

	ref, err := scorer.BuildReference(ctx, domain.DiscoveryConfig{ProfileThreshold: 0.4})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeProfile, ref.Mode)
	require.Len(t, ref.Vector, 2)
	assert.InDelta(t, 0.5, float64(ref.Vector[0]), 1e-6)
	assert.InDelta(t, 0.5, float64(ref.Vector[1]), 1e-6)
}

func TestScorer_BuildReference_EmptyHistory(t *testing.T) {
	scorer := NewScorer(&mockEmbedder{}, memory.NewCandidateStore())

	ref, err := scorer.BuildReference(context.Background(),
		domain.DiscoveryConfig{ProfileThreshold: 0.4})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeProfile, ref.Mode)
	assert.Empty(t, ref.Vector)
}

func TestFeatureText(t *testing.T) {
	cand := &domain.Candidate{
		ExternalID:  "owner/repo",
		Description: "a fast thing",
		Language:    "Go",
		Readme:      strings.Repeat("x", readmeExcerptLimit+500),
	}

	text := FeatureText(cand)
	assert.True(t, strings.HasPrefix(text, "owner/repo\na fast thing\nGo\n"))
	// The README excerpt is bounded
	assert.LessOrEqual(t, len(text), len("owner/repo\na fast thing\nGo\n")+readmeExcerptLimit)

	// Sparse candidates still produce usable input
	assert.Equal(t, "owner/repo", FeatureText(&domain.Candidate{ExternalID: "owner/repo"}))
}
