// Package memory provides in-memory implementations of the storage
// ports, used for tests and ephemeral runs. State does not survive a
// process restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// Ensure TaskQueue implements the interface.
var _ driven.TaskQueue = (*TaskQueue)(nil)

// TaskQueue is an in-memory implementation of driven.TaskQueue.
// Claims are serialised by a mutex, preserving the at-most-once
// guarantee within a single process.
type TaskQueue struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	order map[string]int // enqueue sequence for FIFO within priority
	seq   int
}

// NewTaskQueue creates an empty in-memory task queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks: make(map[string]*domain.Task),
		order: make(map[string]int),
	}
}

// Enqueue adds a pending task to the queue.
func (q *TaskQueue) Enqueue(_ context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.tasks[task.ID]; exists {
		return domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = domain.TaskPending
	}

	stored := *task
	q.tasks[task.ID] = &stored
	q.order[task.ID] = q.seq
	q.seq++
	return nil
}

// ClaimNext hands the highest-priority pending task of the given kind
// to exactly one caller.
func (q *TaskQueue) ClaimNext(_ context.Context, kind domain.TaskKind) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var claimable []*domain.Task
	for _, t := range q.tasks {
		if t.Kind == kind && t.Status == domain.TaskPending {
			claimable = append(claimable, t)
		}
	}
	if len(claimable) == 0 {
		return nil, domain.ErrQueueEmpty
	}

	sort.Slice(claimable, func(i, j int) bool {
		if claimable[i].Priority != claimable[j].Priority {
			return claimable[i].Priority > claimable[j].Priority
		}
		return q.order[claimable[i].ID] < q.order[claimable[j].ID]
	})

	t := claimable[0]
	t.Status = domain.TaskInProgress
	t.UpdatedAt = time.Now().UTC()

	claimed := *t
	return &claimed, nil
}

// Complete marks a claimed task done.
func (q *TaskQueue) Complete(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = domain.TaskDone
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail records a failure and requeues or terminally fails the task.
func (q *TaskQueue) Fail(_ context.Context, taskID, reason string, maxRetries int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.RetryCount++
	t.LastError = reason
	if t.RetryCount >= maxRetries {
		t.Status = domain.TaskFailed
	} else {
		t.Status = domain.TaskPending
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Release returns a claimed task to pending without incrementing its
// retry count.
func (q *TaskQueue) Release(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status == domain.TaskInProgress {
		t.Status = domain.TaskPending
		t.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// CountByStatus returns the number of tasks per status.
func (q *TaskQueue) CountByStatus(_ context.Context) (map[domain.TaskStatus]int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[domain.TaskStatus]int)
	for _, t := range q.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

// PendingOrClaimed reports whether any task is still live.
func (q *TaskQueue) PendingOrClaimed(_ context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tasks {
		if t.Status == domain.TaskPending || t.Status == domain.TaskInProgress {
			return true, nil
		}
	}
	return false, nil
}

// Get returns a copy of a task by ID. Test helper.
func (q *TaskQueue) Get(taskID string) (*domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}
