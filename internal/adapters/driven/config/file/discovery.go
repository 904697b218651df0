package file

import (
	"fmt"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// Configuration keys for the discovery pipeline. Nested TOML tables
// flatten to these dot-notation keys.
const (
	KeyGitHubToken = "github.token"

	KeyDiscoveryQuery   = "discovery.query"
	KeyDiscoverySince   = "discovery.since"
	KeyDiscoveryUntil   = "discovery.until"
	KeyDiscoveryTactic  = "discovery.tactic"
	KeyDiscoveryWorkers = "discovery.workers"
	KeyDiscoveryRetries = "discovery.max_retries"

	KeyRateSafetyMargin = "rate.safety_margin"
	KeyRateMaxWaitMins  = "rate.max_wait_minutes"

	KeyScoringProvider         = "scoring.provider"
	KeyScoringModel            = "scoring.model"
	KeyScoringAPIKey           = "scoring.api_key"
	KeyScoringBaseURL          = "scoring.base_url"
	KeyScoringProfileThreshold = "scoring.profile_threshold"
	KeyScoringSessionThreshold = "scoring.session_threshold"

	KeyExclusions = "exclusions"
)

// dateLayouts are the accepted formats for the since/until keys.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// DiscoveryConfig assembles the typed pipeline configuration from the
// store. Keys left unset fall back to domain defaults via Normalise;
// the query has no default and must come from the store or the caller.
func DiscoveryConfig(store driven.ConfigStore) (domain.DiscoveryConfig, error) {
	cfg := domain.DiscoveryConfig{
		Query:            store.GetString(KeyDiscoveryQuery),
		SafetyMargin:     store.GetInt(KeyRateSafetyMargin),
		MaxRetries:       store.GetInt(KeyDiscoveryRetries),
		Workers:          store.GetInt(KeyDiscoveryWorkers),
		ProfileThreshold: store.GetFloat(KeyScoringProfileThreshold),
		SessionThreshold: store.GetFloat(KeyScoringSessionThreshold),
	}

	if mins := store.GetInt(KeyRateMaxWaitMins); mins > 0 {
		cfg.MaxRateWait = time.Duration(mins) * time.Minute
	}

	lower, err := parseDate(store.GetString(KeyDiscoverySince))
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", KeyDiscoverySince, err)
	}
	upper, err := parseDate(store.GetString(KeyDiscoveryUntil))
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", KeyDiscoveryUntil, err)
	}
	if upper.IsZero() {
		upper = time.Now().UTC().Truncate(time.Second)
	}
	if lower.IsZero() {
		// A year of history is a workable default window.
		lower = upper.AddDate(-1, 0, 0)
	}
	cfg.Domain = domain.NewDomainRange(lower, upper)

	for _, pattern := range store.GetStringSlice(KeyExclusions) {
		cfg.Exclusions = append(cfg.Exclusions, domain.Exclusion{Pattern: pattern})
	}

	return cfg.Normalise(), nil
}

// Tactic resolves the configured search tactic, defaulting to trending.
func Tactic(store driven.ConfigStore) domain.Tactic {
	return domain.TacticByName(store.GetString(KeyDiscoveryTactic))
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
