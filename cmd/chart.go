package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/report"
)

var (
	chartOutputDir string
	chartEncoding  string
)

var chartCmd = &cobra.Command{
	Use:   "chart <posts.csv>",
	Short: "Render engagement charts for a posts CSV",
	Long: `Reads a posts table (as written by "collect") and renders likes/comments
bars, the likes trend, a likes vs comments scatter and a correlation chart into
the output directory. Charts that cannot be rendered are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lopt := dataset.DefaultLoadOptions()
		lopt.Fallback = currentConfig().FallbackEncoding
		lopt.Logger = cmdLogger()
		if chartEncoding != "" {
			if err := checkEncoding(chartEncoding); err != nil {
				return err
			}
			lopt.Fallback = chartEncoding
		}
		raw, err := dataset.Load(args[0], lopt)
		if err != nil {
			return err
		}
		t := dataset.NormalizeTable(raw, dataset.PostsSchema, dataset.NormalizeOptions{Logger: cmdLogger()})

		dir := chartOutputDir
		if dir == "" {
			dir = currentConfig().OutputDir
		}
		out := cmd.OutOrStdout()
		paths, err := report.NewCharts(dir, cmdLogger()).Posts(t)
		for _, p := range paths {
			fmt.Fprintf(out, "✓ Wrote %s\n", p)
		}
		if err != nil {
			fmt.Fprintf(out, "⚠ Warning: some charts were not rendered: %v\n", err)
		}
		if len(paths) == 0 && err == nil {
			fmt.Fprintln(out, "⚠ No posts to chart")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartOutputDir, "output-dir", "", "directory for PNG charts (default: output_dir from config)")
	chartCmd.Flags().StringVar(&chartEncoding, "encoding", "", "legacy encoding tried when the file is not UTF-8")
}
