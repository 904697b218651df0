package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driving"
	"github.com/custodia-labs/prospector-cli/internal/logger"
)

// idleWait is how long a worker sleeps when its queue is empty before
// checking again.
const idleWait = 500 * time.Millisecond

// Ensure Orchestrator implements the driving port.
var _ driving.HuntOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives the discovery pipeline: probe, search, fetch,
// and score workers cooperate through the persisted task queue. Each
// worker kind waits only on its own rate-limit scope, so an exhausted
// search budget never stalls detail fetching or scoring.
type Orchestrator struct {
	cfg        domain.DiscoveryConfig
	queue      driven.TaskQueue
	candidates driven.CandidateStore
	splitter   *Splitter
	api        driven.SearchAPI
	fetcher    driven.DetailFetcher
	scorer     *Scorer

	reference domain.Reference

	// Run-level counters. Duplicates never produce a stored row, so
	// they are tracked here rather than derived from the store.
	duplicates atomic.Int64
	failures   atomic.Int64
}

// NewOrchestrator wires the pipeline from its collaborators. The
// configuration is explicit; there is no ambient global state.
func NewOrchestrator(
	cfg domain.DiscoveryConfig,
	queue driven.TaskQueue,
	candidates driven.CandidateStore,
	api driven.SearchAPI,
	fetcher driven.DetailFetcher,
	scorer *Scorer,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg.Normalise(),
		queue:      queue,
		candidates: candidates,
		splitter:   NewSplitter(api, queue, cfg),
		api:        api,
		fetcher:    fetcher,
		scorer:     scorer,
	}
}

// Run seeds the queue when starting fresh, builds the active scoring
// reference, and drives workers until the domain is exhausted or the
// context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*driving.HuntSummary, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	ref, err := o.scorer.BuildReference(ctx, o.cfg)
	if err != nil {
		return nil, err
	}
	o.reference = ref
	logger.Info("scoring in %s mode (threshold %.2f)", ref.Mode, ref.Threshold)

	if err := o.seed(ctx); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	workers := map[domain.TaskKind]func(context.Context, *domain.Task) error{
		domain.TaskProbe:       o.handleProbe,
		domain.TaskSearch:      o.handleSearch,
		domain.TaskFetchDetail: o.handleFetch,
		domain.TaskScore:       o.handleScore,
	}
	for kind, handler := range workers {
		for i := 0; i < o.cfg.Workers; i++ {
			g.Go(func() error {
				return o.workerLoop(gctx, kind, handler)
			})
		}
	}

	g.Go(func() error {
		return o.watchExhaustion(gctx)
	})
	if o.cfg.SummaryInterval > 0 {
		g.Go(func() error {
			return o.summaryLoop(gctx)
		})
	}

	err = g.Wait()
	summary, sumErr := o.Summary(context.WithoutCancel(ctx))
	if sumErr != nil {
		return nil, sumErr
	}

	switch {
	case errors.Is(err, domain.ErrDomainExhausted):
		// Completion signal, not a failure.
		summary.Exhausted = true
		return summary, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return summary, err
	default:
		return summary, err
	}
}

// Summary reports current progress without side effects.
func (o *Orchestrator) Summary(ctx context.Context) (*driving.HuntSummary, error) {
	stats, err := o.candidates.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Duplicates += int(o.duplicates.Load())

	tasks, err := o.queue.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	live, err := o.queue.PendingOrClaimed(ctx)
	if err != nil {
		return nil, err
	}

	return &driving.HuntSummary{
		Candidates: stats,
		Tasks:      tasks,
		Exhausted:  !live,
	}, nil
}

// seed enqueues the initial probe covering the whole domain, unless a
// previous run left tasks to resume.
func (o *Orchestrator) seed(ctx context.Context) error {
	counts, err := o.queue.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, n := range counts {
		if n > 0 {
			logger.Info("resuming existing queue")
			return nil
		}
	}

	task, err := domain.NewTask(uuid.NewString(), domain.TaskProbe,
		domain.ProbePayload{Range: o.cfg.Domain}, domain.PriorityProbe)
	if err != nil {
		return fmt.Errorf("building seed task: %w", err)
	}
	logger.Info("seeding domain %s", o.cfg.Domain)
	return o.queue.Enqueue(ctx, task)
}

// workerLoop claims and handles tasks of one kind until the context is
// cancelled. Per-task failures stay local to the task; they never
// abort sibling workers.
func (o *Orchestrator) workerLoop(
	ctx context.Context,
	kind domain.TaskKind,
	handle func(context.Context, *domain.Task) error,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task, err := o.queue.ClaimNext(ctx, kind)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A busy store is transient; only an empty queue is
			// routine enough to skip logging. Either way the loop
			// backs off and tries again rather than taking the
			// whole pool down.
			if !errors.Is(err, domain.ErrQueueEmpty) {
				logger.Warn("claiming %s task: %v", kind, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleWait):
			}
			continue
		}

		o.finish(ctx, task, handle(ctx, task))
	}
}

// finish resolves a handled task. Status writes use a detached context
// so a cancelled worker still leaves the task in a clean state.
func (o *Orchestrator) finish(ctx context.Context, task *domain.Task, err error) {
	wctx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		if cerr := o.queue.Complete(wctx, task.ID); cerr != nil {
			logger.Warn("completing task %s: %v", task.ID, cerr)
		}

	case errors.Is(err, domain.ErrMalformedResponse):
		// Permanent content issue: skip, log, never retry.
		logger.Warn("task %s skipped: %v", task.ID, err)
		if cerr := o.queue.Complete(wctx, task.ID); cerr != nil {
			logger.Warn("completing task %s: %v", task.ID, cerr)
		}

	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		// Shutdown interrupted the handler. The task itself is fine,
		// so it goes back to pending with its retry budget intact. A
		// per-call timeout with the run still live is not this case;
		// it falls through and spends a retry like any other failure.
		if rerr := o.queue.Release(wctx, task.ID); rerr != nil {
			logger.Warn("releasing task %s: %v", task.ID, rerr)
		}

	default:
		// Transient failures and exhausted rate budgets requeue until
		// the retry ceiling.
		o.failures.Add(1)
		logger.Warn("task %s (%s) failed: %v", task.ID, task.Kind, err)
		if ferr := o.queue.Fail(wctx, task.ID, err.Error(), o.cfg.MaxRetries); ferr != nil {
			logger.Warn("failing task %s: %v", task.ID, ferr)
		}
	}
}

// handleProbe counts a range and expands or accepts it.
func (o *Orchestrator) handleProbe(ctx context.Context, task *domain.Task) error {
	payload, err := decode[domain.ProbePayload](task)
	if err != nil {
		return err
	}
	return o.splitter.Probe(ctx, payload.Range)
}

// handleSearch enumerates one page of a leaf range, filters and
// deduplicates the results, and enqueues fetch tasks for novel
// candidates.
func (o *Orchestrator) handleSearch(ctx context.Context, task *domain.Task) error {
	payload, err := decode[domain.SearchPayload](task)
	if err != nil {
		return err
	}

	page, err := o.api.Search(ctx, payload.Range, payload.Page)
	if err != nil {
		return err
	}

	for i := range page.Items {
		cand := page.Items[i]

		if excl := domain.FirstMatch(o.cfg.Exclusions, cand.ExternalID); excl != nil {
			cand.Decision = domain.DecisionRejected
			cand.RejectReason = domain.RejectFiltered
			if err := o.candidates.Insert(ctx, &cand); err != nil {
				if errors.Is(err, domain.ErrDuplicateCandidate) {
					o.duplicates.Add(1)
					continue
				}
				return err
			}
			logger.Debug("filtered %s (%s)", cand.ExternalID, excl.Pattern)
			continue
		}

		if err := o.candidates.Insert(ctx, &cand); err != nil {
			if errors.Is(err, domain.ErrDuplicateCandidate) {
				o.duplicates.Add(1)
				logger.Debug("duplicate %s", cand.ExternalID)
				continue
			}
			return err
		}

		fetch, err := domain.NewTask(uuid.NewString(), domain.TaskFetchDetail, domain.FetchPayload{
			ExternalID: cand.ExternalID,
			Owner:      cand.Owner,
			Repo:       cand.Repo,
			Ref:        cand.DefaultBranch,
		}, domain.PriorityFetch)
		if err != nil {
			return err
		}
		if err := o.queue.Enqueue(ctx, fetch); err != nil {
			return err
		}
	}

	return nil
}

// handleFetch downloads enrichment content and queues the candidate
// for scoring. A repository without a README is still scored on its
// name and description.
func (o *Orchestrator) handleFetch(ctx context.Context, task *domain.Task) error {
	payload, err := decode[domain.FetchPayload](task)
	if err != nil {
		return err
	}

	readme, err := o.fetcher.FetchReadme(ctx, payload.Owner, payload.Repo, payload.Ref)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		readme = ""
	case errors.Is(err, domain.ErrMalformedResponse):
		return err
	case err != nil:
		return err
	}

	if readme != "" {
		if err := o.candidates.UpdateReadme(ctx, payload.ExternalID, readme); err != nil {
			return err
		}
	}

	score, err := domain.NewTask(uuid.NewString(), domain.TaskScore,
		domain.ScorePayload{ExternalID: payload.ExternalID}, domain.PriorityScore)
	if err != nil {
		return err
	}
	return o.queue.Enqueue(ctx, score)
}

// handleScore embeds the candidate's features and records the accept
// or reject decision against the active reference.
func (o *Orchestrator) handleScore(ctx context.Context, task *domain.Task) error {
	payload, err := decode[domain.ScorePayload](task)
	if err != nil {
		return err
	}

	cand, err := o.candidates.Get(ctx, payload.ExternalID)
	if err != nil {
		return err
	}

	vector, err := o.scorer.Embed(ctx, cand)
	if err != nil {
		return err
	}

	similarity, decision := o.scorer.DecideAgainst(vector, o.reference)
	reason := domain.RejectNone
	if decision == domain.DecisionRejected {
		reason = domain.RejectBelowThreshold
	}

	if err := o.candidates.RecordDecision(ctx, cand.ExternalID, vector, similarity, decision, reason); err != nil {
		return err
	}

	if decision == domain.DecisionAccepted {
		logger.Info("accepted %s (similarity %.2f)", cand.ExternalID, similarity)
	} else {
		logger.Debug("rejected %s (similarity %.2f < %.2f)", cand.ExternalID, similarity, o.reference.Threshold)
	}
	return nil
}

// watchExhaustion ends the run once no task is pending or in progress.
func (o *Orchestrator) watchExhaustion(ctx context.Context) error {
	ticker := time.NewTicker(idleWait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			live, err := o.queue.PendingOrClaimed(ctx)
			if err != nil {
				return err
			}
			if !live {
				return domain.ErrDomainExhausted
			}
		}
	}
}

// summaryLoop logs periodic progress counts.
func (o *Orchestrator) summaryLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.SummaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			summary, err := o.Summary(ctx)
			if err != nil {
				logger.Warn("summary: %v", err)
				continue
			}
			logger.Info("progress: %d accepted, %d rejected, %d pending, %d tasks failed",
				summary.Candidates.Accepted, summary.Candidates.Rejected(),
				summary.Candidates.Pending, int(o.failures.Load()))
		}
	}
}

// decode unmarshals a task payload into its typed variant.
func decode[T any](task *domain.Task) (T, error) {
	var zero T
	payload, err := task.DecodePayload()
	if err != nil {
		return zero, err
	}
	typed, ok := payload.(T)
	if !ok {
		return zero, domain.ErrInvalidInput
	}
	return typed, nil
}
