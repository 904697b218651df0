package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prospector-cli/internal/connectors/github"
	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driving"
	"github.com/custodia-labs/prospector-cli/internal/core/services"
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Run a discovery hunt",
	Long: `Enumerate a creation-date window, deduplicate the results, and score
each candidate against your profile or a session query.

Interrupting the hunt (Ctrl-C) is safe: claimed tasks return to the
queue and the next hunt resumes from where this one stopped.

Examples:
  # Hunt with the configured query over the configured window
  prospector hunt

  # Override the query and window
  prospector hunt --query "language:go topic:cli" --since 2025-01-01

  # Score against an explicit interest instead of the profile
  prospector hunt --session "terminal UI frameworks"`,
	RunE: runHunt,
}

// Flags for hunt.
var (
	huntQuery   string
	huntSince   string
	huntUntil   string
	huntSession string
	huntTactic  string
	huntWorkers int
)

func init() {
	huntCmd.Flags().StringVarP(
		&huntQuery, "query", "q", "", "Base search query (overrides config)")
	huntCmd.Flags().StringVar(
		&huntSince, "since", "", "Window start, RFC3339 or YYYY-MM-DD (overrides config)")
	huntCmd.Flags().StringVar(
		&huntUntil, "until", "", "Window end, RFC3339 or YYYY-MM-DD (overrides config)")
	huntCmd.Flags().StringVar(
		&huntSession, "session", "", "Session query: score against this text instead of the profile")
	huntCmd.Flags().StringVar(
		&huntTactic, "tactic", "", "Search tactic: trending, rising_stars, or established")
	huntCmd.Flags().IntVar(
		&huntWorkers, "workers", 0, "Concurrent workers per task kind")
	rootCmd.AddCommand(huntCmd)
}

func runHunt(cmd *cobra.Command, _ []string) error {
	confStore, err := openConfig()
	if err != nil {
		return err
	}

	cfg, err := file.DiscoveryConfig(confStore)
	if err != nil {
		return err
	}
	if err := applyHuntFlags(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("set a query with --query or discovery.query in %s: %w",
			confStore.Path(), err)
	}

	tactic := file.Tactic(confStore)
	if huntTactic != "" {
		tactic = domain.TacticByName(huntTactic)
	}

	token, err := githubToken(confStore)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := newEmbedder(confStore)
	if err != nil {
		return err
	}
	defer embedder.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}

	client := github.NewClient(ctx, token, cfg.SafetyMargin, cfg.MaxRateWait)
	search := github.NewSearchAdapter(client, cfg, tactic)
	scorer := services.NewScorer(embedder, store.CandidateStore())

	orchestrator := services.NewOrchestrator(
		cfg, store.TaskQueue(), store.CandidateStore(), search, search, scorer)

	cmd.Printf("Hunting %q with tactic %s\n", cfg.Query, tactic.Name)

	summary, err := orchestrator.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		cmd.Println("\nInterrupted. Progress saved; rerun to resume.")
	default:
		return err
	}

	if summary != nil {
		printSummary(cmd, summary)
	}
	return nil
}

func applyHuntFlags(cfg *domain.DiscoveryConfig) error {
	if huntQuery != "" {
		cfg.Query = huntQuery
	}
	if huntSession != "" {
		cfg.SessionQuery = huntSession
	}
	if huntWorkers > 0 {
		cfg.Workers = huntWorkers
	}
	if huntSince != "" {
		t, err := parseTimeFlag(huntSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		cfg.Domain.Lower = t
	}
	if huntUntil != "" {
		t, err := parseTimeFlag(huntUntil)
		if err != nil {
			return fmt.Errorf("parsing --until: %w", err)
		}
		cfg.Domain.Upper = t
	}
	return nil
}

func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func printSummary(cmd *cobra.Command, summary *driving.HuntSummary) {
	cmd.Println()
	if summary.Exhausted {
		cmd.Println("Domain exhausted.")
	}
	cmd.Printf("Accepted:        %d\n", summary.Candidates.Accepted)
	cmd.Printf("Rejected:        %d\n", summary.Candidates.Rejected())
	cmd.Printf("  duplicates:    %d\n", summary.Candidates.Duplicates)
	cmd.Printf("  filtered:      %d\n", summary.Candidates.Filtered)
	cmd.Printf("  below cutoff:  %d\n", summary.Candidates.BelowThreshold)
	cmd.Printf("Awaiting score:  %d\n", summary.Candidates.Pending)
	if failed := summary.Tasks[domain.TaskFailed]; failed > 0 {
		cmd.Printf("Failed tasks:    %d\n", failed)
	}
}
