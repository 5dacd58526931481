package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataPath         string  `mapstructure:"data_path" yaml:"data_path"`
	OutputDir        string  `mapstructure:"output_dir" yaml:"output_dir"`
	TestFraction     float64 `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed             int64   `mapstructure:"seed" yaml:"seed"`
	NEstimators      int     `mapstructure:"n_estimators" yaml:"n_estimators"`
	MaxDepth         int     `mapstructure:"max_depth" yaml:"max_depth"`
	MinSamplesSplit  int     `mapstructure:"min_samples_split" yaml:"min_samples_split"`
	FallbackEncoding string  `mapstructure:"fallback_encoding" yaml:"fallback_encoding"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Post store (PostgreSQL); empty disables it.
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`

	// Telegram collector
	TelegramAppID       int    `mapstructure:"telegram_app_id" yaml:"telegram_app_id"`
	TelegramAppHash     string `mapstructure:"telegram_app_hash" yaml:"telegram_app_hash"`
	TelegramSessionFile string `mapstructure:"telegram_session_file" yaml:"telegram_session_file"`
	CollectLimit        int    `mapstructure:"collect_limit" yaml:"collect_limit"`

	// HTTP API
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
}

// Defaults lists every key with its default value.
var Defaults = map[string]any{
	"data_path":             "data/posts_example.csv",
	"output_dir":            "output",
	"test_fraction":         0.3,
	"seed":                  42,
	"n_estimators":          100,
	"max_depth":             0,
	"min_samples_split":     2,
	"fallback_encoding":     "latin1",
	"log_level":             "info",
	"log_file":              "logs/engage.log",
	"database_url":          "",
	"telegram_app_id":       0,
	"telegram_app_hash":     "",
	"telegram_session_file": "data/telegram.session.json",
	"collect_limit":         50,
	"server_addr":           ":8080",
}

// Default returns the configuration used when nothing else is set.
func Default() *Global {
	return &Global{
		DataPath:            "data/posts_example.csv",
		OutputDir:           "output",
		TestFraction:        0.3,
		Seed:                42,
		NEstimators:         100,
		MinSamplesSplit:     2,
		FallbackEncoding:    "latin1",
		LogLevel:            "info",
		LogFile:             "logs/engage.log",
		TelegramSessionFile: "data/telegram.session.json",
		CollectLimit:        50,
		ServerAddr:          ":8080",
	}
}

// Keys returns the configuration keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(Defaults))
	for k := range Defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultPath returns ~/.engage/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".engage", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.engage/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults. A .env file in
// the working directory is loaded first and never overrides variables that
// are already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ENGAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, def := range Defaults {
		v.SetDefault(k, def)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0,1), got %v", c.TestFraction)
	}
	if c.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be >= 1, got %d", c.NEstimators)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", c.MinSamplesSplit)
	}
	return nil
}
