package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathoo/questrules/cli"
	"github.com/nathoo/questrules/engine"
	"github.com/nathoo/questrules/loader"
	"github.com/nathoo/questrules/storage/sqlite"
	"github.com/nathoo/questrules/tui"
)

var (
	runPlain  bool
	runScript string
	runWatch  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load packages and open the operator console",
	Long: `Loads every package under the package root, opens the actor store and
starts the console. The full-screen UI is used when stdout is a terminal;
--plain or --script force the line-oriented console.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Use the line-oriented console")
	runCmd.Flags().StringVar(&runScript, "script", "", "Replay console commands from a file")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Reload packages when their files change")
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	useTUI := runScript == "" && !runPlain && isTerminal()
	logPath := ""
	if useTUI {
		logPath = filepath.Join(filepath.Dir(cfg.Database), "questrules.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return err
		}
	}
	if err := initLogger(logPath); err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing store failed", zap.Error(err))
		}
	}()

	eng := engine.New(engine.Options{Store: store, Logger: logger})

	res, err := loader.Load(cfg.Packages)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}
	logWarnings(res.Warnings)
	for _, err := range eng.Load(res.Packages) {
		logger.Warn("Definition skipped", zap.Error(err))
	}
	logger.Info("Packages loaded",
		zap.String("root", cfg.Packages),
		zap.Int("packages", len(res.Packages)),
		zap.Int("objectives", len(eng.Objectives.Names())))

	reload := func(ctx context.Context) []error {
		res, err := loader.Load(cfg.Packages)
		if err != nil {
			return []error{err}
		}
		logWarnings(res.Warnings)
		return eng.Reload(ctx, res.Packages)
	}

	if runWatch || cfg.Watch {
		w, err := loader.NewWatcher(cfg.Packages, cfg.Debounce, func(ctx context.Context) {
			for _, err := range reload(ctx) {
				logger.Warn("Reload problem", zap.Error(err))
			}
		}, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	console := cli.NewConsole(eng, cfg.SaveDir, reload)

	switch {
	case runScript != "":
		f, err := os.Open(runScript)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(console)
		c.In = f
		c.EchoInput = true
		c.Run(ctx)
	case !useTUI:
		cli.New(console).Run(ctx)
	default:
		if err := tui.Run(ctx, console); err != nil {
			return err
		}
	}

	// Signal context may already be cancelled; saving must still run.
	return eng.Shutdown(context.WithoutCancel(ctx))
}

func logWarnings(warnings []string) {
	for _, w := range warnings {
		logger.Warn("Package warning", zap.String("warning", w))
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
