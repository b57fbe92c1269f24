// questrules runs instruction-driven quest packages against an actor store.
// Usage: questrules [--config <file>] [-v] <command>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathoo/questrules/config"
	"github.com/nathoo/questrules/logging"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	verbose    bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "questrules",
	Short: "Instruction-driven quest engine",
	Long: `questrules loads quest packages (YAML or Lua) that define conditions,
events and objectives as instruction strings, and runs them against actors
whose progress is kept in a SQLite store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("packages") {
			cfg.Packages, _ = cmd.Flags().GetString("packages")
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("questrules %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "questrules.yml", "Config file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("packages", "", "Package root directory (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(holdersCmd)
	rootCmd.AddCommand(versionCmd)
}

// initLogger builds the process logger. When path is non-empty logs go to
// that file so they do not corrupt a full-screen UI.
func initLogger(path string) error {
	var err error
	if path != "" {
		logger, err = logging.NewFile(cfg.Logging.Level, path)
	} else {
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Development)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
