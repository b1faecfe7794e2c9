package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"refdrift/internal/watch"
)

var watchOpts compareOptions

// watchCmd re-runs the comparison whenever a snapshot file changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the comparison whenever either snapshot file changes",
	Long: `Runs the comparison once, then watches both snapshot files and re-runs it
each time one of them settles after a change. Bursts of writes (editor saves,
re-exports) collapse into a single run.

Example:
  refdrift watch --before q3.xlsx --after q4.xlsx --scorer lexical --md report.md`,
	RunE: runWatch,
}

func init() {
	addCompareFlags(watchCmd, &watchOpts)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, &watchOpts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// First pass up front; later runs are change-driven.
	if err := runAndRender(ctx, cfg, &watchOpts); err != nil {
		return err
	}

	w, err := watch.New(
		[]string{watchOpts.beforePath, watchOpts.afterPath},
		cfg.GetWatchDebounce(),
		func(changed []string) {
			logger.Info("Snapshot changed, re-running comparison", zap.Strings("paths", changed))
			if err := runAndRender(ctx, cfg, &watchOpts); err != nil {
				logger.Error("Comparison failed", zap.Error(err))
				fmt.Fprintf(os.Stderr, "compare failed: %v\n", err)
			}
		},
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println("Watching for snapshot changes. Press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}
