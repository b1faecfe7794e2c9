package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"refdrift/internal/config"
	"refdrift/internal/reconcile"
)

func TestVersionCmd(t *testing.T) {
	output := captureOutput(t, func() {
		versionCmd.Run(&cobra.Command{}, nil)
	})
	if !strings.Contains(output, "refdrift "+version) {
		t.Fatalf("expected version line, got: %s", output)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	applyFlagOverrides(cfg, &compareOptions{scorer: "lexical", sheet: "Q4"})
	if cfg.Scoring.Backend != "lexical" {
		t.Fatalf("scorer flag not applied: %s", cfg.Scoring.Backend)
	}
	if cfg.Input.Sheet != "Q4" {
		t.Fatalf("sheet flag not applied: %s", cfg.Input.Sheet)
	}

	// Empty flags leave the config alone.
	applyFlagOverrides(cfg, &compareOptions{})
	if cfg.Scoring.Backend != "lexical" || cfg.Input.Sheet != "Q4" {
		t.Fatal("empty flags must not reset config values")
	}
}

func TestBuildScorerLexical(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.Backend = "lexical"

	scorer, cleanup, err := buildScorer(cfg)
	if err != nil {
		t.Fatalf("buildScorer returned error: %v", err)
	}
	defer cleanup()
	if scorer.Name() != "lexical" {
		t.Fatalf("expected lexical scorer, got %s", scorer.Name())
	}
}

func TestBuildScorerUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.Backend = "telepathy"
	if _, _, err := buildScorer(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestResolveFieldsExplicit(t *testing.T) {
	cfg := config.DefaultConfig()
	headers := []string{"Code", "Code Notes", "Description"}

	fields, err := resolveFields(cfg, &compareOptions{fields: []string{"Code Notes", "Description"}}, headers, headers)
	if err != nil {
		t.Fatalf("resolveFields returned error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].BeforeColumn != "Code Notes" || fields[1].BeforeColumn != "Description" {
		t.Fatalf("unexpected columns: %+v", fields)
	}
}

func TestResolveFieldsFromConfigAliases(t *testing.T) {
	cfg := config.DefaultConfig() // aliases: "Code Notes", "MHI Code Notes"
	headers := []string{"Code", "MHI Code Notes"}

	fields, err := resolveFields(cfg, &compareOptions{}, headers, headers)
	if err != nil {
		t.Fatalf("resolveFields returned error: %v", err)
	}
	if len(fields) != 1 || fields[0].BeforeColumn != "MHI Code Notes" {
		t.Fatalf("expected the second alias to resolve, got %+v", fields)
	}
}

func TestRunComparisonLexical(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	before := filepath.Join(dir, "before.csv")
	after := filepath.Join(dir, "after.csv")
	writeTestFile(t, before, "Code,Code Notes\nA1,same text\nB2,old wording here\nC3,gone\n")
	writeTestFile(t, after, "Code,Code Notes\nA1,same text\nB2,new wording here\nD4,fresh\n")

	cfg := config.DefaultConfig()
	cfg.Scoring.Backend = "lexical"

	reports, err := runComparison(context.Background(), cfg, &compareOptions{
		beforePath: before,
		afterPath:  after,
	})
	if err != nil {
		t.Fatalf("runComparison returned error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}

	statuses := map[string]reconcile.Status{}
	for _, rec := range reports[0].Records {
		statuses[rec.Code] = rec.Status
	}
	want := map[string]reconcile.Status{
		"A1": reconcile.StatusNoChange,
		"B2": reconcile.StatusModified,
		"C3": reconcile.StatusRemoved,
		"D4": reconcile.StatusNewlyAdded,
	}
	for code, status := range want {
		if statuses[code] != status {
			t.Errorf("code %s: got status %q, want %q", code, statuses[code], status)
		}
	}

	sum := reconcile.Summarize(reports[0])
	if sum.Total != 4 {
		t.Fatalf("expected total 4, got %d", sum.Total)
	}
}

func TestRunComparisonMissingKeyColumn(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	before := filepath.Join(dir, "before.csv")
	after := filepath.Join(dir, "after.csv")
	writeTestFile(t, before, "Identifier,Code Notes\nA1,text\n")
	writeTestFile(t, after, "Code,Code Notes\nA1,text\n")

	cfg := config.DefaultConfig()
	cfg.Scoring.Backend = "lexical"

	_, err := runComparison(context.Background(), cfg, &compareOptions{
		beforePath: before,
		afterPath:  after,
	})
	if err == nil || !strings.Contains(err.Error(), "before snapshot") {
		t.Fatalf("expected before-side key resolution error, got: %v", err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
