package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue and candidate counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	tasks, err := store.TaskQueue().CountByStatus(ctx)
	if err != nil {
		return err
	}
	stats, err := store.CandidateStore().Stats(ctx)
	if err != nil {
		return err
	}

	cmd.Println("Tasks:")
	for _, status := range []domain.TaskStatus{
		domain.TaskPending, domain.TaskInProgress, domain.TaskDone, domain.TaskFailed,
	} {
		cmd.Printf("  %-12s %d\n", status, tasks[status])
	}

	cmd.Println("Candidates:")
	cmd.Printf("  %-12s %d\n", "accepted", stats.Accepted)
	cmd.Printf("  %-12s %d\n", "pending", stats.Pending)
	cmd.Printf("  %-12s %d\n", "rejected", stats.Rejected())

	if tasks[domain.TaskPending] > 0 || tasks[domain.TaskInProgress] > 0 {
		cmd.Println("\nHunt in progress or resumable. Run: prospector hunt")
	}
	return nil
}
