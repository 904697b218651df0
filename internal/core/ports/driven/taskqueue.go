package driven

import (
	"context"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// TaskQueue is the persisted, priority-ordered work list shared by all
// workers. Implementations must survive process restarts and must make
// ClaimNext atomic: a pending task is handed to exactly one caller.
type TaskQueue interface {
	// Enqueue adds a pending task to the queue.
	Enqueue(ctx context.Context, task *domain.Task) error

	// ClaimNext atomically transitions the highest-priority pending
	// task of the given kind to in_progress and returns it. Ordering
	// is priority descending, then enqueue order. Returns
	// domain.ErrQueueEmpty when no task is claimable.
	ClaimNext(ctx context.Context, kind domain.TaskKind) (*domain.Task, error)

	// Complete marks a claimed task done.
	Complete(ctx context.Context, taskID string) error

	// Fail records a failure reason and increments the retry count.
	// Below maxRetries the task returns to pending; at or past it the
	// task goes terminal failed.
	Fail(ctx context.Context, taskID, reason string, maxRetries int) error

	// Release returns a claimed task to pending without touching its
	// retry count. Used when a shutdown interrupts the handler; the
	// task itself did nothing wrong.
	Release(ctx context.Context, taskID string) error

	// CountByStatus returns the number of tasks per status.
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)

	// PendingOrClaimed reports whether any task is still pending or
	// in progress. False means the domain is exhausted.
	PendingOrClaimed(ctx context.Context) (bool, error)
}
