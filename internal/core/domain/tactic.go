package domain

import (
	"fmt"
	"strings"
	"time"
)

// Tactic is a named query shape applied on top of the base keywords.
// Tactics vary the star window and sort order so repeated hunts over
// the same keywords surface different slices of the ecosystem.
type Tactic struct {
	// Name identifies the tactic in config and logs.
	Name string

	// StarsMin and StarsMax bound the stargazer count. StarsMax zero
	// means unbounded.
	StarsMin int
	StarsMax int

	// Sort is the API sort order: updated, stars, or forks.
	Sort string
}

// Built-in tactics.
var (
	TacticTrending = Tactic{Name: "trending", StarsMin: 20, Sort: "updated"}

	TacticRisingStars = Tactic{Name: "rising_stars", StarsMin: 10, StarsMax: 100, Sort: "updated"}

	TacticEstablished = Tactic{Name: "established", StarsMin: 500, Sort: "stars"}
)

// TacticByName resolves a configured tactic name. Unknown names fall
// back to trending.
func TacticByName(name string) Tactic {
	switch strings.ToLower(name) {
	case TacticRisingStars.Name:
		return TacticRisingStars
	case TacticEstablished.Name:
		return TacticEstablished
	default:
		return TacticTrending
	}
}

// BuildQuery compiles the base query, the tactic's star window, and a
// created: range filter into a GitHub search query string.
func (t Tactic) BuildQuery(base string, r DomainRange) string {
	parts := []string{strings.TrimSpace(base)}

	if t.StarsMax > 0 {
		parts = append(parts, fmt.Sprintf("stars:%d..%d", t.StarsMin, t.StarsMax))
	} else if t.StarsMin > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", t.StarsMin))
	}

	parts = append(parts, fmt.Sprintf("created:%s..%s",
		r.Lower.UTC().Format(time.RFC3339),
		// The created: qualifier is inclusive on both ends, while
		// ranges are half-open. Backing off one second keeps sibling
		// leaves from overlapping.
		r.Upper.UTC().Add(-time.Second).Format(time.RFC3339)))

	return strings.Join(parts, " ")
}
