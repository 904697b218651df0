package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Inspect discovered candidates",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates by decision",
	Long: `List stored candidates, most recently discovered first.

Examples:
  # Accepted repositories with their similarity scores
  prospector candidates list

  # Rejected candidates, to tune thresholds or exclusions
  prospector candidates list --decision rejected --limit 50`,
	RunE: runCandidatesList,
}

// Flags for candidates list.
var (
	candidatesDecision string
	candidatesLimit    int
)

func init() {
	candidatesListCmd.Flags().StringVar(
		&candidatesDecision, "decision", "accepted", "Decision to list: accepted, rejected, or pending")
	candidatesListCmd.Flags().IntVar(
		&candidatesLimit, "limit", 20, "Maximum candidates to show")

	candidatesCmd.AddCommand(candidatesListCmd)
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidatesList(cmd *cobra.Command, _ []string) error {
	decision := domain.Decision(candidatesDecision)
	switch decision {
	case domain.DecisionAccepted, domain.DecisionRejected, domain.DecisionPending:
	default:
		return fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, candidatesDecision)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	candidates, err := store.CandidateStore().ListByDecision(ctx, decision, candidatesLimit)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		cmd.Printf("No %s candidates.\n", decision)
		return nil
	}

	for i := range candidates {
		c := &candidates[i]
		cmd.Printf("  %s\n", c.ExternalID)
		if c.Description != "" {
			cmd.Printf("    %s\n", truncate(c.Description, 100))
		}
		cmd.Printf("    stars: %d", c.Stars)
		if c.Language != "" {
			cmd.Printf("  language: %s", c.Language)
		}
		if decision != domain.DecisionPending {
			cmd.Printf("  similarity: %.2f", c.Similarity)
		}
		if c.RejectReason != domain.RejectNone {
			cmd.Printf("  reason: %s", c.RejectReason)
		}
		cmd.Println()
		cmd.Printf("    %s\n", c.HTMLURL)
		cmd.Println()
	}
	return nil
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
