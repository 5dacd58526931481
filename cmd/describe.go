package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/utils"
)

var (
	descOutput     string
	descDelimiter  string
	descEncoding   string
	descSchema     string
	descSampleRows int
	descGroupBy    []string
	descCorr       bool
	descDecimal    string
	descThousands  string
	descOutliers   bool
	descOutlierThr float64
	descQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarize CSV/TSV datasets as Markdown",
	Long: `Describes one or more datasets (globs allowed): column kinds, numeric stats,
robust outlier counts, group-by means and the strongest correlations.

With one input, --output names the Markdown file. With several inputs,
--output is a directory receiving <name>.summary.md per file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		lopt := dataset.DefaultLoadOptions()
		lopt.Fallback = currentConfig().FallbackEncoding
		lopt.Logger = cmdLogger()
		if lopt.Delimiter, err = parseDelimiter(descDelimiter); err != nil {
			return err
		}
		if descEncoding != "" {
			if err := checkEncoding(descEncoding); err != nil {
				return err
			}
			lopt.Fallback = descEncoding
		}
		nf, err := parseNumberFormat(descDecimal, descThousands)
		if err != nil {
			return err
		}
		var schema *dataset.Schema
		if descSchema != "" {
			s, ok := dataset.SchemaByName(descSchema)
			if !ok {
				return fmt.Errorf("unsupported --schema: %s (use engagement|posts)", descSchema)
			}
			schema = &s
		}

		opt := dataset.DefaultDescribeOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		opt.Number = nf

		out := cmd.OutOrStdout()
		batch := len(files) > 1
		if batch && descOutput != "" {
			if err := utils.EnsureDir(descOutput); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		var failed int
		for i, path := range files {
			if batch && !descQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, len(files), path)
			}
			md, err := describeFile(path, lopt, schema, opt)
			if err != nil {
				if !batch {
					return err
				}
				failed++
				fmt.Fprintf(os.Stderr, "⚠ Skipping %s: %v\n", path, err)
				continue
			}
			switch {
			case descOutput == "":
				fmt.Fprintln(out, md)
			case batch:
				base := filepath.Base(path)
				safe := strings.TrimSuffix(base, filepath.Ext(base))
				dest := utils.UniquePath(filepath.Join(descOutput, safe+".summary.md"))
				if err := utils.SafeWriteFile(dest, []byte(md)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote summary to %s\n", dest)
			default:
				if dir := filepath.Dir(descOutput); dir != "." {
					if err := utils.EnsureDir(dir); err != nil {
						return fmt.Errorf("create output dir: %w", err)
					}
				}
				if err := utils.SafeWriteFile(descOutput, []byte(md)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote summary to %s\n", descOutput)
			}
		}
		if failed == len(files) {
			return fmt.Errorf("all %d inputs failed", failed)
		}
		return nil
	},
}

func describeFile(path string, lopt dataset.LoadOptions, schema *dataset.Schema, opt dataset.DescribeOptions) (string, error) {
	t, err := dataset.Load(path, lopt)
	if err != nil {
		return "", err
	}
	if schema != nil {
		t = dataset.NormalizeTable(t, *schema, dataset.NormalizeOptions{Number: opt.Number, Logger: cmdLogger()})
	}
	return dataset.Describe(filepath.Base(path), t, opt).Markdown(), nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	f := describeCmd.Flags()
	f.StringVarP(&descOutput, "output", "o", "", "write Markdown to this file (or directory for several inputs)")
	f.StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	f.StringVar(&descEncoding, "encoding", "", "legacy encoding tried when a file is not UTF-8")
	f.StringVar(&descSchema, "schema", "", "normalize to a schema before describing: engagement|posts")
	f.StringVar(&descDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&descThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	f.StringSliceVar(&descGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	f.BoolVar(&descCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	f.BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	f.Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	f.BoolVarP(&descQuiet, "quiet", "q", false, "suppress per-file progress")
}
