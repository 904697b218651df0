package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// taskQueue implements driven.TaskQueue.
type taskQueue struct {
	store *Store
}

var _ driven.TaskQueue = (*taskQueue)(nil)

// Enqueue adds a pending task to the queue.
func (q *taskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = domain.TaskPending
	}

	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, kind, payload, priority, status, retry_count, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Kind, string(task.Payload), task.Priority, task.Status,
		task.RetryCount, nullString(task.LastError),
		task.CreatedAt.Format(time.RFC3339), task.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("enqueueing task: %w", err)
	}
	return nil
}

// ClaimNext atomically hands the highest-priority pending task of the
// given kind to exactly one caller. The claim is a single UPDATE with
// a RETURNING clause: the select and the status transition happen in
// one statement, so concurrent claimers never race a read-then-write
// lock upgrade and never both win the same row.
func (q *taskQueue) ClaimNext(ctx context.Context, kind domain.TaskKind) (*domain.Task, error) {
	task, err := scanTask(q.store.db.QueryRowContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM tasks
			WHERE kind = ? AND status = ?
			ORDER BY priority DESC, rowid ASC
			LIMIT 1
		)
		RETURNING id, kind, payload, priority, status, retry_count, last_error, created_at, updated_at
	`, domain.TaskInProgress, time.Now().UTC().Format(time.RFC3339),
		kind, domain.TaskPending))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("claiming task: %w", err)
	}
	return task, nil
}

// Complete marks a claimed task done.
func (q *taskQueue) Complete(ctx context.Context, taskID string) error {
	_, err := q.store.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, domain.TaskDone, time.Now().UTC().Format(time.RFC3339), taskID)
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	return nil
}

// Fail records a failure. Below maxRetries the task returns to
// pending; at or past it the task goes terminal failed.
func (q *taskQueue) Fail(ctx context.Context, taskID, reason string, maxRetries int) error {
	_, err := q.store.db.ExecContext(ctx, `
		UPDATE tasks SET
			retry_count = retry_count + 1,
			last_error = ?,
			status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE ? END,
			updated_at = ?
		WHERE id = ?
	`, reason, maxRetries, domain.TaskFailed, domain.TaskPending,
		time.Now().UTC().Format(time.RFC3339), taskID)
	if err != nil {
		return fmt.Errorf("failing task: %w", err)
	}
	return nil
}

// Release returns a claimed task to pending without incrementing its
// retry count.
func (q *taskQueue) Release(ctx context.Context, taskID string) error {
	_, err := q.store.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, domain.TaskPending, time.Now().UTC().Format(time.RFC3339),
		taskID, domain.TaskInProgress)
	if err != nil {
		return fmt.Errorf("releasing task: %w", err)
	}
	return nil
}

// CountByStatus returns the number of tasks per status.
func (q *taskQueue) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning task count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task counts: %w", err)
	}
	return counts, nil
}

// PendingOrClaimed reports whether any task is still live.
func (q *taskQueue) PendingOrClaimed(ctx context.Context) (bool, error) {
	var n int
	row := q.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks WHERE status IN (?, ?)
	`, domain.TaskPending, domain.TaskInProgress)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("counting live tasks: %w", err)
	}
	return n > 0, nil
}

// scanTask scans a full task row.
func scanTask(row *sql.Row) (*domain.Task, error) {
	var task domain.Task
	var payload string
	var lastError sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&task.ID, &task.Kind, &payload, &task.Priority,
		&task.Status, &task.RetryCount, &lastError, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.Payload = []byte(payload)
	if lastError.Valid {
		task.LastError = lastError.String
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		task.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		task.UpdatedAt = t
	}
	return &task, nil
}
