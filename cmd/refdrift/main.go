package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"refdrift/internal/config"
	"refdrift/internal/logging"
)

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "refdrift",
	Short: "refdrift - classify drift between two snapshots of a coded reference dataset",
	Long: `refdrift compares a "before" and an "after" snapshot of a keyed dataset
and classifies every record as unchanged, modified, newly added, or removed.

Modified records are scored for how much their text actually changed, either
semantically (embedding cosine similarity via Gemini or a local Ollama model)
or lexically (offline diff ratio), and the score is mapped to a severity
label. Reports render to the terminal, to an xlsx workbook with severity
color fills, or to markdown.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The pager owns the terminal; keep zap off its screen.
		if cmd.Name() == "view" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cwd, err := os.Getwd(); err == nil {
			if err := logging.Initialize(cwd); err != nil {
				logger.Warn("File logging disabled", zap.Error(err))
			}
		}
		if verbose {
			logging.SetDebugMode(true)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the refdrift version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("refdrift %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: .refdrift/config.yaml)")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the active config file, honoring --config.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}
