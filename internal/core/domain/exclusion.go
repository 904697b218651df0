package domain

import "strings"

// Exclusion is a pattern that rejects a candidate before scoring.
// Matched candidates are recorded with reason "filtered" so they are
// never fetched or scored again.
type Exclusion struct {
	// Pattern is matched case-insensitively against the repository
	// full name. A leading or trailing '*' makes it a suffix or
	// prefix match; otherwise it is a substring match.
	Pattern string

	// Reason is an optional explanation surfaced in logs.
	Reason string
}

// Matches reports whether the candidate's external ID matches the
// exclusion pattern.
func (e Exclusion) Matches(externalID string) bool {
	p := strings.ToLower(e.Pattern)
	id := strings.ToLower(externalID)

	switch {
	case p == "":
		return false
	case strings.HasPrefix(p, "*") && strings.HasSuffix(p, "*"):
		return strings.Contains(id, strings.Trim(p, "*"))
	case strings.HasPrefix(p, "*"):
		return strings.HasSuffix(id, strings.TrimPrefix(p, "*"))
	case strings.HasSuffix(p, "*"):
		return strings.HasPrefix(id, strings.TrimSuffix(p, "*"))
	default:
		return strings.Contains(id, p)
	}
}

// FirstMatch returns the first exclusion matching the external ID, or
// nil if none match.
func FirstMatch(exclusions []Exclusion, externalID string) *Exclusion {
	for i := range exclusions {
		if exclusions[i].Matches(externalID) {
			return &exclusions[i]
		}
	}
	return nil
}
