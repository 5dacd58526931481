package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/engage-cli/internal/config"
	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/logging"
	"github.com/KaramelBytes/engage-cli/internal/model"
	"github.com/KaramelBytes/engage-cli/internal/pipeline"
)

// currentConfig returns the loaded config or defaults when loading was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

func cmdLogger() *slog.Logger { return logging.OrDiscard(logger) }

// baseOptions builds pipeline options from the effective configuration.
func baseOptions(path string) pipeline.Options {
	c := currentConfig()
	if path == "" {
		path = c.DataPath
	}
	opt := pipeline.DefaultOptions(path)
	opt.Load.Fallback = c.FallbackEncoding
	opt.Load.Logger = logging.OrDiscard(logger)
	opt.OutputDir = c.OutputDir
	opt.Model.TestFraction = c.TestFraction
	opt.Model.Seed = c.Seed
	opt.Model.Forest = model.ForestParams{
		NEstimators:     c.NEstimators,
		MaxDepth:        c.MaxDepth,
		MinSamplesSplit: c.MinSamplesSplit,
		Bootstrap:       true,
	}
	opt.Model.Logger = logger
	opt.Logger = logger
	return opt
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parseNumberFormat(decimal, thousands string) (dataset.NumberFormat, error) {
	var nf dataset.NumberFormat
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		nf.DecimalSeparator = ','
	case ".", "dot":
		nf.DecimalSeparator = '.'
	case "":
	default:
		return nf, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		nf.ThousandsSeparator = ','
	case ".":
		nf.ThousandsSeparator = '.'
	case "space", " ":
		nf.ThousandsSeparator = ' '
	case "":
	default:
		return nf, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return nf, nil
}

func checkEncoding(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := dataset.LookupEncoding(name); !ok {
		return fmt.Errorf("unsupported --encoding: %s", name)
	}
	return nil
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}
