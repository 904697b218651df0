package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "prospector-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// enqueueTestTask enqueues a task and returns its ID.
func enqueueTestTask(t *testing.T, queue interface {
	Enqueue(ctx context.Context, task *domain.Task) error
}, kind domain.TaskKind, priority int) string {
	t.Helper()
	task, err := domain.NewTask(uuid.NewString(), kind,
		domain.ScorePayload{ExternalID: "owner/repo"}, priority)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(context.Background(), task))
	return task.ID
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "prospector-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, filepath.Join(tempDir, "prospector.db"))
}

func TestNewStore_CreatesClaimIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var name string
	row := store.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_tasks_claim'")
	require.NoError(t, row.Scan(&name))
	assert.Equal(t, "idx_tasks_claim", name)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "prospector-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not fail on already-applied migrations
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Task Queue Tests ====================

func TestTaskQueue_ClaimOrdering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	low := enqueueTestTask(t, queue, domain.TaskScore, 10)
	high := enqueueTestTask(t, queue, domain.TaskScore, 30)
	mid := enqueueTestTask(t, queue, domain.TaskScore, 20)

	claimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, high, claimed.ID)
	assert.Equal(t, domain.TaskInProgress, claimed.Status)

	claimed, err = queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, mid, claimed.ID)

	claimed, err = queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, low, claimed.ID)
}

func TestTaskQueue_FIFOWithinPriority(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	first := enqueueTestTask(t, queue, domain.TaskScore, 10)
	second := enqueueTestTask(t, queue, domain.TaskScore, 10)

	claimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, first, claimed.ID)

	claimed, err = queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, second, claimed.ID)
}

func TestTaskQueue_ClaimFiltersByKind(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	enqueueTestTask(t, queue, domain.TaskFetchDetail, 20)

	_, err := queue.ClaimNext(ctx, domain.TaskScore)
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)

	claimed, err := queue.ClaimNext(ctx, domain.TaskFetchDetail)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFetchDetail, claimed.Kind)
}

func TestTaskQueue_ClaimEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.TaskQueue().ClaimNext(context.Background(), domain.TaskProbe)
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)
}

func TestTaskQueue_ClaimIsExclusive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	const tasks = 200
	for i := 0; i < tasks; i++ {
		enqueueTestTask(t, queue, domain.TaskScore, 10)
	}

	// Concurrent claimers must each receive a distinct task, and a
	// busy database must never surface as a claim error: the only
	// acceptable way out of the loop is an empty queue.
	var mu sync.Mutex
	seen := make(map[string]int)
	var claimErrs []error
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := queue.ClaimNext(ctx, domain.TaskScore)
				if err != nil {
					if !errors.Is(err, domain.ErrQueueEmpty) {
						mu.Lock()
						claimErrs = append(claimErrs, err)
						mu.Unlock()
					}
					return
				}
				mu.Lock()
				seen[task.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, claimErrs)
	assert.Len(t, seen, tasks)
	for id, count := range seen {
		assert.Equal(t, 1, count, "task %s claimed %d times", id, count)
	}
}

func TestTaskQueue_CompleteAndCounts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	enqueueTestTask(t, queue, domain.TaskScore, 10)
	enqueueTestTask(t, queue, domain.TaskScore, 10)

	claimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	require.NoError(t, queue.Complete(ctx, claimed.ID))

	counts, err := queue.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TaskPending])
	assert.Equal(t, 1, counts[domain.TaskDone])

	live, err := queue.PendingOrClaimed(ctx)
	require.NoError(t, err)
	assert.True(t, live)
}

func TestTaskQueue_FailRequeuesUntilCeiling(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()
	id := enqueueTestTask(t, queue, domain.TaskScore, 10)

	const maxRetries = 2

	// First failure requeues
	claimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	require.NoError(t, queue.Fail(ctx, claimed.ID, "boom", maxRetries))

	claimed, err = queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, id, claimed.ID)
	assert.Equal(t, 1, claimed.RetryCount)
	assert.Equal(t, "boom", claimed.LastError)

	// Second failure reaches the ceiling and goes terminal
	require.NoError(t, queue.Fail(ctx, claimed.ID, "boom again", maxRetries))

	_, err = queue.ClaimNext(ctx, domain.TaskScore)
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)

	counts, err := queue.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TaskFailed])

	live, err := queue.PendingOrClaimed(ctx)
	require.NoError(t, err)
	assert.False(t, live)
}

func TestTaskQueue_ReleaseKeepsRetryBudget(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()
	id := enqueueTestTask(t, queue, domain.TaskScore, 10)

	claimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	require.NoError(t, queue.Release(ctx, claimed.ID))

	// The task is claimable again with its retry count untouched
	reclaimed, err := queue.ClaimNext(ctx, domain.TaskScore)
	require.NoError(t, err)
	assert.Equal(t, id, reclaimed.ID)
	assert.Equal(t, 0, reclaimed.RetryCount)
	assert.Empty(t, reclaimed.LastError)
}

func TestTaskQueue_InProgressReleasedOnReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "prospector-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)

	id := enqueueTestTask(t, store.TaskQueue(), domain.TaskProbe, 10)
	_, err = store.TaskQueue().ClaimNext(ctx, domain.TaskProbe)
	require.NoError(t, err)

	// Simulate a crash: close with the claim still held
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	claimed, err := store.TaskQueue().ClaimNext(ctx, domain.TaskProbe)
	require.NoError(t, err)
	assert.Equal(t, id, claimed.ID)
}

func TestTaskQueue_PayloadRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	queue := store.TaskQueue()

	r := domain.NewDomainRange(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	)
	task, err := domain.NewTask(uuid.NewString(), domain.TaskSearch,
		domain.SearchPayload{Range: r, Page: 3, Truncated: true}, domain.PrioritySearch)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(ctx, task))

	claimed, err := queue.ClaimNext(ctx, domain.TaskSearch)
	require.NoError(t, err)

	payload, err := claimed.DecodePayload()
	require.NoError(t, err)
	sp, ok := payload.(domain.SearchPayload)
	require.True(t, ok)
	assert.Equal(t, 3, sp.Page)
	assert.True(t, sp.Truncated)
	assert.True(t, sp.Range.Lower.Equal(r.Lower))
	assert.True(t, sp.Range.Upper.Equal(r.Upper))
}
