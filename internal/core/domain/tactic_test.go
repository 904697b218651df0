package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTacticByName(t *testing.T) {
	assert.Equal(t, TacticTrending, TacticByName("trending"))
	assert.Equal(t, TacticRisingStars, TacticByName("rising_stars"))
	assert.Equal(t, TacticEstablished, TacticByName("ESTABLISHED"))

	// Unknown names fall back to trending
	assert.Equal(t, TacticTrending, TacticByName(""))
	assert.Equal(t, TacticTrending, TacticByName("moonshot"))
}

func TestTactic_BuildQuery(t *testing.T) {
	lower := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewDomainRange(lower, lower.Add(24*time.Hour))

	tests := []struct {
		name   string
		tactic Tactic
		want   string
	}{
		{
			name:   "trending has open star floor",
			tactic: TacticTrending,
			want:   "language:go stars:>=20 created:2025-01-01T00:00:00Z..2025-01-01T23:59:59Z",
		},
		{
			name:   "rising stars bounds both ends",
			tactic: TacticRisingStars,
			want:   "language:go stars:10..100 created:2025-01-01T00:00:00Z..2025-01-01T23:59:59Z",
		},
		{
			name:   "no star filter",
			tactic: Tactic{Name: "plain"},
			want:   "language:go created:2025-01-01T00:00:00Z..2025-01-01T23:59:59Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tactic.BuildQuery("language:go", r))
		})
	}
}

// Sibling leaves share a bound; the inclusive created: qualifier must
// not query it twice.
func TestTactic_BuildQueryAdjacentRangesDoNotOverlap(t *testing.T) {
	lower := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	parent := NewDomainRange(lower, lower.Add(2*time.Hour))
	left, right := parent.Split()

	tactic := Tactic{Name: "plain"}
	leftQuery := tactic.BuildQuery("q", left)
	rightQuery := tactic.BuildQuery("q", right)

	assert.Contains(t, leftQuery, "..2025-01-01T00:59:59Z")
	assert.Contains(t, rightQuery, "created:2025-01-01T01:00:00Z..")
}
