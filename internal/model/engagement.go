package model

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/logging"
)

// ParityPlotter renders true versus predicted values. Implementations return
// the path of the written chart.
type ParityPlotter interface {
	Parity(yTrue, yPred []float64, score float64) (string, error)
}

// Options controls TrainAndEvaluate.
type Options struct {
	TestFraction float64
	Seed         int64
	Forest       ForestParams
	// Plot requests a parity chart from Plotter. Plot failures are logged
	// and never fail the evaluation.
	Plot    bool
	Plotter ParityPlotter
	Logger  *slog.Logger
}

// DefaultOptions holds 30% out with seed 42.
func DefaultOptions() Options {
	return Options{TestFraction: 0.3, Seed: 42, Forest: DefaultForestParams()}
}

// Evaluation is the outcome of one fit and held-out evaluation.
type Evaluation struct {
	Model     *Forest
	Score     float64 // R² on the test rows
	MSE       float64
	MAE       float64
	TrainRows int
	TestRows  int
	TestIndex []int
	YTest     []float64
	YPred     []float64
	PlotPath  string
}

// TrainAndEvaluate splits the rows with a seeded permutation, fits a forest
// on the train part and scores it on the test part with R².
func TrainAndEvaluate(fm *dataset.FeatureMatrix, y *dataset.Target, opt Options) (*Evaluation, error) {
	log := logging.OrDiscard(opt.Logger)
	n := fm.Rows()
	if n == 0 || y == nil || len(y.Values) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(y.Values) != n {
		return nil, fmt.Errorf("train: %d feature rows but %d targets", n, len(y.Values))
	}
	trainIdx, testIdx, err := TrainTestSplit(n, opt.TestFraction, opt.Seed)
	if err != nil {
		return nil, fmt.Errorf("train/test split: %w", err)
	}
	xTrain, yTrain := subsetRows(fm.X, trainIdx), subsetValues(y.Values, trainIdx)
	xTest, yTest := subsetRows(fm.X, testIdx), subsetValues(y.Values, testIdx)

	forest := NewForest(opt.Forest, opt.Seed)
	forest.Features = append([]string(nil), fm.Columns...)
	if err := forest.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	yPred := forest.Predict(xTest)

	ev := &Evaluation{
		Model:     forest,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		TestIndex: testIdx,
		YTest:     yTest,
		YPred:     yPred,
	}
	if ev.Score, err = R2(yTest, yPred); err != nil {
		return nil, err
	}
	ev.MSE, _ = MSE(yTest, yPred)
	ev.MAE, _ = MAE(yTest, yPred)
	log.Info("model evaluated",
		"target", y.Name, "train_rows", ev.TrainRows, "test_rows", ev.TestRows,
		"trees", len(forest.Trees), "r2", ev.Score)

	if opt.Plot {
		switch {
		case opt.Plotter == nil:
			log.Warn("plot requested but no plotter configured")
		default:
			path, perr := opt.Plotter.Parity(yTest, yPred, ev.Score)
			if perr != nil {
				log.Warn("parity chart not rendered", "error", perr)
			} else {
				ev.PlotPath = path
				log.Info("parity chart written", "path", path)
			}
		}
	}
	return ev, nil
}
