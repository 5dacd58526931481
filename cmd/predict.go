package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/model"
	"github.com/KaramelBytes/engage-cli/internal/pipeline"
	"github.com/KaramelBytes/engage-cli/internal/utils"
)

var (
	predTestFraction   float64
	predSeed           int64
	predTrees          int
	predMaxDepth       int
	predMinSplit       int
	predPlot           bool
	predOutputDir      string
	predSaveModel      string
	predSaveNormalized string
	predEncoding       string
	predDelimiter      string
	predDecimal        string
	predThousands      string
	predJSON           bool
)

// predictSummary is the --json output of predict.
type predictSummary struct {
	RunID          string  `json:"run_id"`
	Source         string  `json:"source"`
	Input          string  `json:"input,omitempty"`
	RawRows        int     `json:"raw_rows"`
	Rows           int     `json:"rows"`
	Dropped        int     `json:"dropped"`
	TrainRows      int     `json:"train_rows"`
	TestRows       int     `json:"test_rows"`
	R2Score        float64 `json:"r2_score"`
	MSE            float64 `json:"mse"`
	MAE            float64 `json:"mae"`
	PlotPath       string  `json:"plot_path,omitempty"`
	ModelPath      string  `json:"model_path,omitempty"`
	NormalizedPath string  `json:"normalized_path,omitempty"`
	ElapsedMs      int64   `json:"elapsed_ms"`
}

var predictCmd = &cobra.Command{
	Use:   "predict [file]",
	Short: "Train the engagement model on a dataset and report the R² score",
	Long: `Loads the dataset (default: data_path from config), normalizes it, trains a
random forest on hour, day_of_week and trending_hashtag and prints the R² score
on held-out rows. A missing file falls back to the built-in example dataset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		opt := baseOptions(path)

		f := cmd.Flags()
		if f.Changed("test-fraction") {
			opt.Model.TestFraction = predTestFraction
		}
		if f.Changed("seed") {
			opt.Model.Seed = predSeed
		}
		if f.Changed("trees") {
			if predTrees < 1 {
				return fmt.Errorf("--trees must be >= 1")
			}
			opt.Model.Forest.NEstimators = predTrees
		}
		if f.Changed("max-depth") {
			opt.Model.Forest.MaxDepth = predMaxDepth
		}
		if f.Changed("min-samples-split") {
			opt.Model.Forest.MinSamplesSplit = predMinSplit
		}
		if predOutputDir != "" {
			opt.OutputDir = predOutputDir
		}
		if f.Changed("encoding") {
			if err := checkEncoding(predEncoding); err != nil {
				return err
			}
			opt.Load.Fallback = predEncoding
		}
		d, err := parseDelimiter(predDelimiter)
		if err != nil {
			return err
		}
		opt.Load.Delimiter = d
		nf, err := parseNumberFormat(predDecimal, predThousands)
		if err != nil {
			return err
		}
		opt.Number = nf
		opt.Plot = predPlot
		opt.SaveModel = predSaveModel
		opt.SaveNormalized = predSaveNormalized

		res, err := pipeline.Run(opt)
		if err != nil {
			return err
		}
		return printPrediction(cmd, opt.DataPath, res)
	},
}

func printPrediction(cmd *cobra.Command, requested string, res *pipeline.Result) error {
	ev := res.Evaluation
	out := cmd.OutOrStdout()
	if predJSON {
		b, err := utils.PrettyJSON(summarize(res))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	if res.Source == pipeline.SourceExample {
		fmt.Fprintf(out, "⚠ Dataset %s not found, used the built-in example data\n", requested)
	}
	if res.Dropped > 0 {
		fmt.Fprintf(out, "⚠ Dropped %d incomplete rows\n", res.Dropped)
	}
	fmt.Fprintf(out, "Rows: %d (train %d, test %d)\n", res.Rows, ev.TrainRows, ev.TestRows)
	fmt.Fprintf(out, "MSE: %.3f  MAE: %.3f\n", ev.MSE, ev.MAE)
	fmt.Fprintf(out, "✓ R² score: %.4f\n", ev.Score)
	if ev.PlotPath != "" {
		fmt.Fprintf(out, "✓ Wrote parity chart to %s\n", ev.PlotPath)
	} else if predPlot {
		fmt.Fprintln(out, "⚠ Parity chart was not written (see log)")
	}
	if res.ModelPath != "" {
		fmt.Fprintf(out, "✓ Saved model to %s\n", res.ModelPath)
	}
	if res.NormalizedPath != "" {
		fmt.Fprintf(out, "✓ Wrote normalized dataset to %s\n", res.NormalizedPath)
	}
	return nil
}

func summarize(res *pipeline.Result) predictSummary {
	ev := res.Evaluation
	return predictSummary{
		RunID:          res.RunID,
		Source:         res.Source,
		Input:          res.InputPath,
		RawRows:        res.RawRows,
		Rows:           res.Rows,
		Dropped:        res.Dropped,
		TrainRows:      ev.TrainRows,
		TestRows:       ev.TestRows,
		R2Score:        ev.Score,
		MSE:            ev.MSE,
		MAE:            ev.MAE,
		PlotPath:       ev.PlotPath,
		ModelPath:      res.ModelPath,
		NormalizedPath: res.NormalizedPath,
		ElapsedMs:      res.Elapsed.Milliseconds(),
	}
}

func init() {
	rootCmd.AddCommand(predictCmd)
	f := predictCmd.Flags()
	f.Float64Var(&predTestFraction, "test-fraction", 0.3, "fraction of rows held out for scoring, in (0,1)")
	f.Int64Var(&predSeed, "seed", 42, "seed for the train/test split and the forest")
	f.IntVar(&predTrees, "trees", model.DefaultForestParams().NEstimators, "number of trees")
	f.IntVar(&predMaxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	f.IntVar(&predMinSplit, "min-samples-split", 2, "minimum rows needed to split a node")
	f.BoolVar(&predPlot, "plot", false, "write a true-vs-predicted chart to the output dir")
	f.StringVar(&predOutputDir, "output-dir", "", "directory for charts (overrides config)")
	f.StringVar(&predSaveModel, "save-model", "", "write the fitted model to this path")
	f.StringVar(&predSaveNormalized, "save-normalized", "", "write the cleaned dataset as CSV to this path")
	f.StringVar(&predEncoding, "encoding", "", "legacy encoding tried when the file is not UTF-8 (e.g. latin1, cp1252)")
	f.StringVar(&predDelimiter, "delimiter", "", "CSV delimiter: ',', ';', or 'tab' (auto-detect if empty)")
	f.StringVar(&predDecimal, "decimal", "", "decimal separator: '.' or 'comma' (auto if empty)")
	f.StringVar(&predThousands, "thousands", "", "thousands separator: ',', '.', or 'space' (auto if empty)")
	f.BoolVar(&predJSON, "json", false, "print the result as JSON")
}
