package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/model"
)

var (
	estModel    string
	estHour     int
	estDay      int
	estTrending bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate likes for a planned post with a saved model",
	Long: `Loads a model written by "predict --save-model" and prints the predicted
likes for a post published at --hour on --day (1=Monday..7=Sunday).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if estHour < 0 || estHour > 23 {
			return fmt.Errorf("--hour must be in 0..23, got %d", estHour)
		}
		if estDay < 1 || estDay > 7 {
			return fmt.Errorf("--day must be in 1..7, got %d", estDay)
		}
		path := estModel
		if path == "" {
			path = filepath.Join(currentConfig().OutputDir, "model.gob")
		}
		f, err := model.LoadForest(path)
		if err != nil {
			return err
		}
		trending := 0.0
		if estTrending {
			trending = 1
		}
		inputs := map[string]float64{
			dataset.ColHour:     float64(estHour),
			dataset.ColDay:      float64(estDay),
			dataset.ColTrending: trending,
		}
		names := f.Features
		if len(names) == 0 {
			names = dataset.DefaultFeatures()
		}
		row := make([]float64, len(names))
		for i, name := range names {
			v, ok := inputs[name]
			if !ok {
				return fmt.Errorf("model uses feature %q which estimate cannot supply", name)
			}
			row[i] = v
		}
		cmdLogger().Debug("estimate", "model", path, "features", names, "row", row)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Estimated likes: %.1f\n", f.PredictRow(row))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringVar(&estModel, "model", "", "saved model path (default <output_dir>/model.gob)")
	estimateCmd.Flags().IntVar(&estHour, "hour", 12, "posting hour, 0..23")
	estimateCmd.Flags().IntVar(&estDay, "day", 1, "ISO weekday, 1=Monday..7=Sunday")
	estimateCmd.Flags().BoolVar(&estTrending, "trending", false, "post uses a trending hashtag")
}
