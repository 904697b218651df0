package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

func testRange(seconds int64) domain.DomainRange {
	lower := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.NewDomainRange(lower, lower.Add(time.Duration(seconds)*time.Second))
}

// drainTasks claims every task of one kind currently in the queue.
func drainTasks(t *testing.T, queue *memory.TaskQueue, kind domain.TaskKind) []*domain.Task {
	t.Helper()
	ctx := context.Background()
	var tasks []*domain.Task
	for {
		task, err := queue.ClaimNext(ctx, kind)
		if err != nil {
			return tasks
		}
		require.NoError(t, queue.Complete(ctx, task.ID))
		tasks = append(tasks, task)
	}
}

func decodeProbe(t *testing.T, task *domain.Task) domain.ProbePayload {
	t.Helper()
	payload, err := task.DecodePayload()
	require.NoError(t, err)
	probe, ok := payload.(domain.ProbePayload)
	require.True(t, ok)
	return probe
}

func decodeSearch(t *testing.T, task *domain.Task) domain.SearchPayload {
	t.Helper()
	payload, err := task.DecodePayload()
	require.NoError(t, err)
	search, ok := payload.(domain.SearchPayload)
	require.True(t, ok)
	return search
}

func TestSplitter_EmptyRangeEnqueuesNothing(t *testing.T) {
	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(domain.DomainRange) (int, error) { return 0, nil }}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{})

	require.NoError(t, splitter.Probe(context.Background(), testRange(3600)))

	assert.Empty(t, drainTasks(t, queue, domain.TaskProbe))
	assert.Empty(t, drainTasks(t, queue, domain.TaskSearch))
}

func TestSplitter_LeafEnqueuesOneTaskPerPage(t *testing.T) {
	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(domain.DomainRange) (int, error) { return 250, nil }}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{PageSize: 100})

	r := testRange(3600)
	require.NoError(t, splitter.Probe(context.Background(), r))

	tasks := drainTasks(t, queue, domain.TaskSearch)
	require.Len(t, tasks, 3)

	pages := map[int]bool{}
	for _, task := range tasks {
		payload := decodeSearch(t, task)
		pages[payload.Page] = true
		assert.False(t, payload.Truncated)
		assert.True(t, payload.Range.Lower.Equal(r.Lower))
		assert.True(t, payload.Range.Upper.Equal(r.Upper))
		assert.Equal(t, 250, payload.Range.EstimatedCount)
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, pages)
}

func TestSplitter_OverflowSplitsExactly(t *testing.T) {
	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(domain.DomainRange) (int, error) { return 5000, nil }}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{})

	r := testRange(10000)
	require.NoError(t, splitter.Probe(context.Background(), r))

	probes := drainTasks(t, queue, domain.TaskProbe)
	require.Len(t, probes, 2)
	assert.Empty(t, drainTasks(t, queue, domain.TaskSearch))

	left := decodeProbe(t, probes[0]).Range
	right := decodeProbe(t, probes[1]).Range

	// The halves partition the parent exactly: no gap, no overlap
	assert.True(t, left.Lower.Equal(r.Lower))
	assert.True(t, left.Upper.Equal(right.Lower))
	assert.True(t, right.Upper.Equal(r.Upper))
	assert.True(t, left.Upper.After(left.Lower))
	assert.True(t, right.Upper.After(right.Lower))
}

func TestSplitter_UnsplittableRangeTruncates(t *testing.T) {
	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(domain.DomainRange) (int, error) { return 4200, nil }}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{PageSize: 100})

	// One second cannot be split below the minimum granularity
	require.NoError(t, splitter.Probe(context.Background(), testRange(1)))

	assert.Empty(t, drainTasks(t, queue, domain.TaskProbe))

	tasks := drainTasks(t, queue, domain.TaskSearch)
	// Only the addressable cap worth of pages gets enqueued
	require.Len(t, tasks, 10)
	for _, task := range tasks {
		assert.True(t, decodeSearch(t, task).Truncated)
	}
}

// TestSplitter_BisectionConverges drives the probe loop to completion
// the way the orchestrator would: an overflowing window keeps halving
// until every leaf fits under the cap, and the leaves together cover
// exactly the original window.
func TestSplitter_BisectionConverges(t *testing.T) {
	const densityPerSecond = 0.5 // 5000 results over a 10000-second window

	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(r domain.DomainRange) (int, error) {
		return int(r.Duration().Seconds() * densityPerSecond), nil
	}}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{})

	ctx := context.Background()
	root := testRange(10000)
	require.NoError(t, splitter.Probe(ctx, root))

	// Drive queued probes until none remain
	for {
		task, err := queue.ClaimNext(ctx, domain.TaskProbe)
		if err != nil {
			break
		}
		require.NoError(t, splitter.Probe(ctx, decodeProbe(t, task).Range))
		require.NoError(t, queue.Complete(ctx, task.ID))
	}

	// Collect the distinct leaf ranges
	leaves := map[string]domain.DomainRange{}
	for _, task := range drainTasks(t, queue, domain.TaskSearch) {
		payload := decodeSearch(t, task)
		require.False(t, payload.Truncated)
		leaves[payload.Range.String()] = payload.Range
	}
	require.NotEmpty(t, leaves)

	var covered time.Duration
	for _, leaf := range leaves {
		assert.LessOrEqual(t, leaf.EstimatedCount, domain.DefaultResultCap)
		covered += leaf.Duration()
	}

	// Empty ranges may be skipped, so coverage can be below the full
	// window but never above it
	assert.LessOrEqual(t, covered, root.Duration())
	assert.Greater(t, covered, root.Duration()/2)
}

func TestSplitter_CountErrorPropagates(t *testing.T) {
	queue := memory.NewTaskQueue()
	api := &mockSearchAPI{countFn: func(domain.DomainRange) (int, error) {
		return 0, assert.AnError
	}}
	splitter := NewSplitter(api, queue, domain.DiscoveryConfig{})

	err := splitter.Probe(context.Background(), testRange(3600))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, drainTasks(t, queue, domain.TaskSearch))
}
