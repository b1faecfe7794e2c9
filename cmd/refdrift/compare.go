package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"refdrift/internal/config"
	"refdrift/internal/embedding"
	"refdrift/internal/reconcile"
	"refdrift/internal/report"
	"refdrift/internal/scoring"
	"refdrift/internal/snapshot"
)

// compareOptions carries the flag values shared by compare and watch.
type compareOptions struct {
	beforePath string
	afterPath  string
	sheet      string
	fields     []string
	scorer     string
	outPath    string
	mdPath     string
}

var compareOpts compareOptions

// compareCmd reconciles two snapshots once
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two snapshots and classify every record's change",
	Long: `Loads the before and after snapshots, joins them by the key column, and
emits one change record per key: No Change, Modified (scored and banded into
a severity), Newly Added, or Removed.

Examples:
  refdrift compare --before q3.xlsx --after q4.xlsx
  refdrift compare --before q3.csv --after q4.csv --scorer lexical --out report.xlsx
  refdrift compare --before q3.xlsx --after q4.xlsx --field "Code Notes" --field "Description"`,
	RunE: runCompare,
}

func init() {
	addCompareFlags(compareCmd, &compareOpts)
}

// addCompareFlags registers the snapshot/scorer/output flags on a command.
// compare and watch take the same set.
func addCompareFlags(cmd *cobra.Command, o *compareOptions) {
	cmd.Flags().StringVar(&o.beforePath, "before", "", "Before snapshot file (.csv or .xlsx)")
	cmd.Flags().StringVar(&o.afterPath, "after", "", "After snapshot file (.csv or .xlsx)")
	cmd.Flags().StringVar(&o.sheet, "sheet", "", "Worksheet for workbook inputs (default: first sheet)")
	cmd.Flags().StringArrayVar(&o.fields, "field", nil, "Column to compare, repeatable (default: configured field aliases)")
	cmd.Flags().StringVar(&o.scorer, "scorer", "", "Similarity backend: semantic or lexical (default: configured)")
	cmd.Flags().StringVar(&o.outPath, "out", "", "Write an xlsx report to this path")
	cmd.Flags().StringVar(&o.mdPath, "md", "", "Write a markdown report to this path")
	_ = cmd.MarkFlagRequired("before")
	_ = cmd.MarkFlagRequired("after")
}

// applyFlagOverrides folds command-line values into the loaded config. Flags
// beat config file and environment.
func applyFlagOverrides(cfg *config.Config, o *compareOptions) {
	if o.scorer != "" {
		cfg.Scoring.Backend = o.scorer
	}
	if o.sheet != "" {
		cfg.Input.Sheet = o.sheet
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
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
	applyFlagOverrides(cfg, &compareOpts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	return runAndRender(ctx, cfg, &compareOpts)
}

// runAndRender executes one full comparison and writes every requested
// rendering. watch re-invokes it on file changes.
func runAndRender(ctx context.Context, cfg *config.Config, o *compareOptions) error {
	reports, err := runComparison(ctx, cfg, o)
	if err != nil {
		return err
	}

	for _, rep := range reports {
		fmt.Println(report.RenderTerm(rep))
	}
	if o.outPath != "" {
		if err := report.WriteWorkbook(o.outPath, reports); err != nil {
			return err
		}
		fmt.Printf("Wrote workbook report: %s\n", o.outPath)
	}
	if o.mdPath != "" {
		if err := report.WriteMarkdown(o.mdPath, reports); err != nil {
			return err
		}
		fmt.Printf("Wrote markdown report: %s\n", o.mdPath)
	}
	return nil
}

// runComparison loads both snapshots, resolves the key and field columns,
// and reconciles every requested field.
func runComparison(ctx context.Context, cfg *config.Config, o *compareOptions) ([]*reconcile.Report, error) {
	load := snapshot.LoadConfig{
		Sheet:        cfg.Input.Sheet,
		Placeholders: cfg.Input.Placeholders,
	}

	beforeTable, err := snapshot.Load(o.beforePath, load)
	if err != nil {
		return nil, fmt.Errorf("load before snapshot: %w", err)
	}
	afterTable, err := snapshot.Load(o.afterPath, load)
	if err != nil {
		return nil, fmt.Errorf("load after snapshot: %w", err)
	}

	beforeKey, err := snapshot.ResolveColumn(beforeTable.Headers, cfg.Input.KeyAliases)
	if err != nil {
		return nil, fmt.Errorf("before snapshot: %w", err)
	}
	afterKey, err := snapshot.ResolveColumn(afterTable.Headers, cfg.Input.KeyAliases)
	if err != nil {
		return nil, fmt.Errorf("after snapshot: %w", err)
	}

	before, err := snapshot.FromTable(beforeTable, beforeKey)
	if err != nil {
		return nil, err
	}
	after, err := snapshot.FromTable(afterTable, afterKey)
	if err != nil {
		return nil, err
	}
	logger.Info("Snapshots loaded",
		zap.String("before", o.beforePath), zap.Int("before_records", before.Len()),
		zap.String("after", o.afterPath), zap.Int("after_records", after.Len()))

	fields, err := resolveFields(cfg, o, beforeTable.Headers, afterTable.Headers)
	if err != nil {
		return nil, err
	}

	scorer, cleanup, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rec, err := reconcile.New(scorer, cfg.ActiveBands(), reconcile.Config{
		Workers:         cfg.Scoring.Workers,
		DuplicatePolicy: cfg.DuplicatePolicy(),
	})
	if err != nil {
		return nil, err
	}

	reports := make([]*reconcile.Report, 0, len(fields))
	for _, field := range fields {
		rep, err := rec.Reconcile(ctx, before, after, field)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Label, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// resolveFields maps --field values (or the configured alias set) to resolved
// field columns on both sides.
func resolveFields(cfg *config.Config, o *compareOptions, beforeHeaders, afterHeaders []string) ([]reconcile.Field, error) {
	if len(o.fields) == 0 {
		field, err := reconcile.ResolveField(cfg.Input.FieldAliases, beforeHeaders, afterHeaders)
		if err != nil {
			return nil, err
		}
		return []reconcile.Field{field}, nil
	}

	fields := make([]reconcile.Field, 0, len(o.fields))
	for _, name := range o.fields {
		field, err := reconcile.ResolveField([]string{name}, beforeHeaders, afterHeaders)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// buildScorer constructs the configured similarity backend. The returned
// cleanup releases the embedding engine and cache handle, if any.
func buildScorer(cfg *config.Config) (scoring.Scorer, func(), error) {
	switch cfg.Scoring.Backend {
	case "lexical":
		return scoring.NewLexical(), func() {}, nil

	case "semantic":
		engine, err := embedding.NewEngine(embedding.Config{
			Provider:       cfg.Embedding.Provider,
			GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
			GenAIModel:     cfg.Embedding.GenAIModel,
			OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
			OllamaModel:    cfg.Embedding.OllamaModel,
			RequestTimeout: cfg.GetRequestTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Embedding.Cache.Enabled {
			cached, err := embedding.NewCachedEngine(engine, cfg.Embedding.Cache.Path)
			if err != nil {
				_ = engine.Close()
				return nil, nil, err
			}
			engine = cached
		}
		scorer := scoring.NewSemantic(engine, scoring.SemanticConfig{
			MaxRetries:   cfg.Scoring.MaxRetries,
			RetryBackoff: cfg.GetRetryBackoff(),
			MaxBackoff:   cfg.GetMaxBackoff(),
			CallTimeout:  cfg.GetCallTimeout(),
		})
		return scorer, func() { _ = engine.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown scoring backend %q", cfg.Scoring.Backend)
	}
}
