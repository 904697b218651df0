package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prospector-cli/internal/connectors/github"
	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub credentials",
	Long: `Store and verify the GitHub personal access token used for hunts.

The token needs no scopes for public repository search; a fine-grained
token with public read access is enough.

Examples:
  # Store a token (prompted, not echoed)
  prospector auth login

  # Check the stored token still works
  prospector auth status`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub personal access token",
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Verify the stored token against the API",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := openConfig()
	if err != nil {
		return err
	}

	cmd.Print("GitHub personal access token: ")
	token := readPassword()
	cmd.Println()
	if token == "" {
		return fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}

	ctx := context.Background()
	client := github.NewClient(ctx, token,
		domain.DefaultSafetyMargin, domain.DefaultMaxRateWait)
	if err := client.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("token rejected by GitHub: %w", err)
	}

	if err := cfg.Set(file.KeyGitHubToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	cmd.Printf("Token verified and saved to %s\n", cfg.Path())
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := openConfig()
	if err != nil {
		return err
	}

	token, err := githubToken(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := github.NewClient(ctx, token,
		domain.DefaultSafetyMargin, domain.DefaultMaxRateWait)
	if err := client.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("token invalid: %w", err)
	}

	cmd.Println("Token valid.")
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Read without echo when attached to a terminal
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
