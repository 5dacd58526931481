package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/engage-cli/internal/config"
	"github.com/KaramelBytes/engage-cli/internal/logging"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLogLevel string
	flagLogFile  string

	// Loaded configuration and process logger
	cfg      *cfgpkg.Global
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "engage",
	Short: "Engage CLI: predict social post engagement from tabular data",
	Long: `Engage loads a post dataset (CSV/TSV), normalizes it, trains a random
forest regressor that predicts likes from posting hour, weekday and trending
hashtag use, and reports the held-out R² score. It can also collect posts,
synthesize datasets, describe tables, render charts and serve predictions over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.engage/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append logs to this file (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so data commands still run
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}

	_ = closeLog()
	l, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging to stderr only\n", err)
		l, closer, _ = logging.New(logging.Options{Debug: debug})
	}
	logger, closeLog = l, closer
	logger.Debug("config loaded", "data_path", cfg.DataPath, "output_dir", cfg.OutputDir)
}
