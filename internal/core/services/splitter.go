package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospector-cli/internal/logger"
)

// Splitter expands the search domain so every queried range fits under
// the API's result cap. Splitting is expressed as queue expansion, not
// recursion: an overflowing range enqueues two probe tasks for its
// halves, so partial progress persists across restarts and the call
// stack stays flat.
type Splitter struct {
	api       driven.SearchAPI
	queue     driven.TaskQueue
	resultCap int
	pageSize  int
}

// NewSplitter creates a splitter bound to a search API and task queue.
func NewSplitter(api driven.SearchAPI, queue driven.TaskQueue, cfg domain.DiscoveryConfig) *Splitter {
	cfg = cfg.Normalise()
	return &Splitter{
		api:       api,
		queue:     queue,
		resultCap: cfg.ResultCap,
		pageSize:  cfg.PageSize,
	}
}

// Probe counts matches in the range and either accepts it as a leaf or
// bisects it. Leaves enqueue one search task per addressable page.
//
// Invariant: the two halves of a split partition the parent exactly,
// so the union of all leaves reconstructs the original domain with no
// gap and no overlap.
func (s *Splitter) Probe(ctx context.Context, r domain.DomainRange) error {
	count, err := s.api.Count(ctx, r)
	if err != nil {
		return fmt.Errorf("probing %s: %w", r, err)
	}
	r.EstimatedCount = count

	switch {
	case count == 0:
		logger.Debug("range %s is empty", r)
		return nil

	case count <= s.resultCap:
		logger.Debug("range %s is a leaf (%d results)", r, count)
		return s.enqueueLeaf(ctx, r, count, false)

	case r.Splittable():
		left, right := r.Split()
		logger.Debug("range %s overflows the cap (%d results), splitting at %s",
			r, count, right.Lower.Format("2006-01-02T15:04:05Z"))
		if err := s.enqueueProbe(ctx, left); err != nil {
			return err
		}
		return s.enqueueProbe(ctx, right)

	default:
		// Minimum granularity reached and the count still exceeds the
		// cap. Accept truncation and flag the leaf.
		logger.Warn("range %s cannot be split further, %d of %d results addressable",
			r, s.resultCap, count)
		return s.enqueueLeaf(ctx, r, s.resultCap, true)
	}
}

// enqueueProbe pushes a probe task for a sub-range.
func (s *Splitter) enqueueProbe(ctx context.Context, r domain.DomainRange) error {
	task, err := domain.NewTask(uuid.NewString(), domain.TaskProbe,
		domain.ProbePayload{Range: r}, domain.PriorityProbe)
	if err != nil {
		return fmt.Errorf("building probe task: %w", err)
	}
	return s.queue.Enqueue(ctx, task)
}

// enqueueLeaf pushes one search task per addressable page of a clean
// (or truncated) leaf range.
func (s *Splitter) enqueueLeaf(ctx context.Context, r domain.DomainRange, count int, truncated bool) error {
	addressable := min(count, s.resultCap)
	pages := (addressable + s.pageSize - 1) / s.pageSize

	for page := 1; page <= pages; page++ {
		task, err := domain.NewTask(uuid.NewString(), domain.TaskSearch,
			domain.SearchPayload{Range: r, Page: page, Truncated: truncated},
			domain.PrioritySearch)
		if err != nil {
			return fmt.Errorf("building search task: %w", err)
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			return fmt.Errorf("enqueueing page %d of %s: %w", page, r, err)
		}
	}
	return nil
}
