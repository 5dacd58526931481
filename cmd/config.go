package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/engage-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Engage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(w, "No config loaded")
			return nil
		}
		fmt.Fprintf(w, "data_path: %s\n", cfg.DataPath)
		fmt.Fprintf(w, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(w, "test_fraction: %.3f\n", cfg.TestFraction)
		fmt.Fprintf(w, "seed: %d\n", cfg.Seed)
		fmt.Fprintf(w, "n_estimators: %d\n", cfg.NEstimators)
		fmt.Fprintf(w, "max_depth: %d\n", cfg.MaxDepth)
		fmt.Fprintf(w, "min_samples_split: %d\n", cfg.MinSamplesSplit)
		fmt.Fprintf(w, "fallback_encoding: %s\n", cfg.FallbackEncoding)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "log_file: %s\n", cfg.LogFile)
		fmt.Fprintf(w, "database_url: %s\n", mask(cfg.DatabaseURL))
		if cfg.TelegramAppID != 0 {
			fmt.Fprintf(w, "telegram_app_id: %d\n", cfg.TelegramAppID)
		}
		fmt.Fprintf(w, "telegram_app_hash: %s\n", mask(cfg.TelegramAppHash))
		fmt.Fprintf(w, "telegram_session_file: %s\n", cfg.TelegramSessionFile)
		fmt.Fprintf(w, "collect_limit: %d\n", cfg.CollectLimit)
		fmt.Fprintf(w, "server_addr: %s\n", cfg.ServerAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "data_path":
			cfg.DataPath = val
		case "output_dir":
			cfg.OutputDir = val
		case "test_fraction":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for test_fraction: %w", err)
			}
			cfg.TestFraction = f
		case "seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for seed: %w", err)
			}
			cfg.Seed = i
		case "n_estimators", "max_depth", "min_samples_split", "telegram_app_id", "collect_limit":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for %s: %w", key, err)
			}
			switch key {
			case "n_estimators":
				cfg.NEstimators = i
			case "max_depth":
				cfg.MaxDepth = i
			case "min_samples_split":
				cfg.MinSamplesSplit = i
			case "telegram_app_id":
				cfg.TelegramAppID = i
			case "collect_limit":
				cfg.CollectLimit = i
			}
		case "fallback_encoding":
			cfg.FallbackEncoding = val
		case "log_level":
			cfg.LogLevel = val
		case "log_file":
			cfg.LogFile = val
		case "database_url":
			cfg.DatabaseURL = val
		case "telegram_app_hash":
			cfg.TelegramAppHash = val
		case "telegram_session_file":
			cfg.TelegramSessionFile = val
		case "server_addr":
			cfg.ServerAddr = val
		default:
			return fmt.Errorf("unknown key: %s (known: %v)", key, cfgpkg.Keys())
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
