package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/archive"
	"github.com/wesm/imsgvault/internal/config"
)

var (
	cfgFile string
	homeDir string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imsgvault",
	Short: "Read and export your iMessage history",
	Long: `imsgvault reads the macOS Messages database (chat.db) read-only, resolves
phone numbers and email addresses to names from your Contacts, and lists,
summarizes or exports your conversations.

Reading ~/Library/Messages requires Full Disk Access for your terminal:
System Settings > Privacy & Security > Full Disk Access.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		// --home is passed through so it also decides where config.toml
		// is read from, like IMSGVAULT_HOME.
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openArchive returns a reader over the configured or default stores.
func openArchive() *archive.Archive {
	return archive.FromConfig(cfg, logger)
}

// storeError replaces store access failures with the guidance the user
// needs to fix them.
func storeError(op string, err error) error {
	if guidance := archive.Guidance(err); guidance != "" {
		return errors.New(guidance)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.imsgvault/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides IMSGVAULT_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
