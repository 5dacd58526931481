package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/collect"
	"github.com/KaramelBytes/engage-cli/internal/dataset"
)

var (
	synthN      int
	synthSeed   int64
	synthOutput string
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate a synthetic post dataset",
	Long: `Writes n synthetic posts (one per day going back from today) with hour,
day_of_week, trending_hashtag, likes and comments columns. The same --seed
always produces the same values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if synthN < 1 {
			return fmt.Errorf("-n must be >= 1")
		}
		seed := synthSeed
		if !cmd.Flags().Changed("seed") {
			seed = currentConfig().Seed
		}
		posts := collect.Synthesize(synthN, seed, time.Now())
		if err := dataset.WriteCSV(collect.SynthesizedTable(posts), synthOutput); err != nil {
			return err
		}
		cmdLogger().Info("synthetic dataset written", "path", synthOutput, "rows", len(posts), "seed", seed)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d synthetic posts to %s\n", len(posts), synthOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.Flags().IntVarP(&synthN, "count", "n", 50, "number of posts")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 42, "random seed (default: seed from config)")
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "data/synthetic_posts.csv", "output CSV path")
}
