// Package cli implements the command-line driving adapter. Commands
// wire the configuration store, SQLite storage, GitHub connector, and
// embedding adapter into the core services on demand.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/prospector-cli/internal/adapters/driven/embedding/openai"
	sqlitestore "github.com/custodia-labs/prospector-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospector-cli/internal/logger"
)

// version is set from main via Execute.
var version = "dev"

// Persistent flags.
var (
	verboseFlag   bool
	configDirFlag string
	dataDirFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "prospector",
	Short: "Discover and score GitHub repositories",
	Long: `Prospector hunts GitHub for repositories matching your interests.

It enumerates a creation-date window with search queries, splits the
window whenever the API's result cap would hide matches, deduplicates
what it finds, and scores each candidate against your taste profile
or an explicit session query using text embeddings.

Progress persists in a local task queue, so an interrupted hunt
resumes where it stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verboseFlag, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(
		&configDirFlag, "config-dir", "", "Config directory (default ~/.prospector)")
	rootCmd.PersistentFlags().StringVar(
		&dataDirFlag, "data-dir", "", "Data directory (default ~/.prospector/data)")
}

// Execute runs the root command. The version string is stamped by the
// build.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// openConfig opens the TOML config store honouring --config-dir.
func openConfig() (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

// openStore opens the SQLite store honouring --data-dir. The caller
// owns the returned store and must Close it.
func openStore() (*sqlitestore.Store, error) {
	store, err := sqlitestore.NewStore(dataDirFlag)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

// newEmbedder builds the configured embedding service. Ollama is the
// default provider so hunts work without any API key.
func newEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString(file.KeyScoringProvider)
	switch provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.GetString(file.KeyScoringBaseURL),
			Model:   cfg.GetString(file.KeyScoringModel),
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.GetString(file.KeyScoringAPIKey),
			BaseURL: cfg.GetString(file.KeyScoringBaseURL),
			Model:   cfg.GetString(file.KeyScoringModel),
		})
	default:
		return nil, fmt.Errorf("unknown scoring provider: %s", provider)
	}
}

// githubToken reads the token from the environment first, falling
// back to the config store. CI and one-off runs need no config file.
func githubToken(cfg driven.ConfigStore) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := cfg.GetString(file.KeyGitHubToken); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%w: no GitHub token, run: prospector auth login", domain.ErrAuthRequired)
}
