package driving

import (
	"context"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// HuntSummary is the periodic and final progress report for a hunt.
type HuntSummary struct {
	// Candidates aggregates accept/reject counts per reason.
	Candidates domain.StoreStats

	// Tasks counts queue entries per status.
	Tasks map[domain.TaskStatus]int

	// Exhausted is true once the full domain has been enumerated and
	// every task reached a terminal state.
	Exhausted bool
}

// HuntOrchestrator drives a discovery run end to end.
type HuntOrchestrator interface {
	// Run seeds the queue with the configured domain (unless resuming
	// a previous run) and drives workers until the domain is
	// exhausted or the context is cancelled. Returns the final
	// summary.
	Run(ctx context.Context) (*HuntSummary, error)

	// Summary reports current progress without side effects.
	Summary(ctx context.Context) (*HuntSummary, error)
}
