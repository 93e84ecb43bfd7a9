package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/qdata-clean/internal/config"
	"github.com/KaramelBytes/qdata-clean/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	workspaceDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "qdata",
	Short: "qdata: clean, profile and export tabular measurement data",
	Long: `qdata parses CSV and JSON uploads into a local workspace, profiles their columns,
runs cleaning steps (null removal, IQR outlier filtering, min-max normalization),
computes summary statistics and exports the result. "qdata serve" exposes the same
operations over HTTP for the dashboard.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.qdata/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "workspace directory (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config call requireConfig and report it
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	if workspaceDir != "" {
		cfg.WorkspaceDir = workspaceDir
	}
}

// requireConfig returns the loaded configuration, loading it if no
// initializer ran.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if workspaceDir != "" {
		c.WorkspaceDir = workspaceDir
	}
	cfg = c
	return cfg, nil
}

// newLogger logs to stderr. A quiet logger discards output unless --debug is set.
func newLogger(quiet bool) *slog.Logger {
	if quiet && !debug {
		return slog.New(slog.DiscardHandler)
	}
	return logger.New(debug)
}
