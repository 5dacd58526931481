package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/logging"
	"github.com/KaramelBytes/engage-cli/internal/model"
	"github.com/KaramelBytes/engage-cli/internal/report"
)

// Data sources reported in Result.Source.
const (
	SourceFile    = "file"
	SourceExample = "example"
	SourceRecords = "records"
)

// Options configures one pipeline run.
type Options struct {
	DataPath string
	Load     dataset.LoadOptions
	Number   dataset.NumberFormat
	Features []string
	Target   string
	Model    model.Options
	// Plot renders a parity chart into OutputDir; failures are only logged.
	Plot           bool
	OutputDir      string
	SaveModel      string
	SaveNormalized string
	Logger         *slog.Logger
}

// DefaultOptions runs the engagement model on path.
func DefaultOptions(path string) Options {
	return Options{
		DataPath:  path,
		Load:      dataset.DefaultLoadOptions(),
		Features:  dataset.DefaultFeatures(),
		Target:    dataset.DefaultTarget,
		Model:     model.DefaultOptions(),
		OutputDir: "output",
	}
}

// Result summarizes a completed run.
type Result struct {
	RunID          string
	Source         string
	InputPath      string
	RawRows        int
	Rows           int
	Dropped        int
	Evaluation     *model.Evaluation
	ModelPath      string
	NormalizedPath string
	Elapsed        time.Duration
}

// Score is the held-out R².
func (r *Result) Score() float64 { return r.Evaluation.Score }

// Run loads opt.DataPath and trains the engagement model. A missing file
// falls back to the built-in example dataset; any other load error aborts.
func Run(opt Options) (*Result, error) {
	log := logging.OrDiscard(opt.Logger)
	opt.Load.Logger = log

	raw, err := dataset.Load(opt.DataPath, opt.Load)
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		log.Warn("dataset not found, using example data", "path", opt.DataPath)
		return run(dataset.ExampleRecords(), nil, SourceExample, opt)
	case err != nil:
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return run(raw.Records(), raw.ColumnNames(), SourceFile, opt)
}

// RunTable trains on an already parsed table.
func RunTable(raw *dataset.Table, source string, opt Options) (*Result, error) {
	if raw == nil {
		return nil, dataset.ErrEmptyDataset
	}
	return run(raw.Records(), raw.ColumnNames(), source, opt)
}

// RunRecords trains on loosely-typed records.
func RunRecords(records []dataset.Record, source string, opt Options) (*Result, error) {
	return run(records, nil, source, opt)
}

// run trains on records. header lists the input columns; nil means the
// union of the record keys.
func run(records []dataset.Record, header []string, source string, opt Options) (*Result, error) {
	start := time.Now()
	log := logging.OrDiscard(opt.Logger)
	res := &Result{RunID: uuid.NewString(), Source: source, RawRows: len(records)}
	if source == SourceFile {
		res.InputPath = opt.DataPath
	}
	log = log.With("run_id", res.RunID)

	features, target := opt.Features, opt.Target
	if len(features) == 0 {
		features = dataset.DefaultFeatures()
	}
	if target == "" {
		target = dataset.DefaultTarget
	}

	if header == nil {
		header = recordKeys(records)
	}
	if len(records) > 0 {
		if err := dataset.EngagementSchema.RequireColumns(header, append(append([]string(nil), features...), target)...); err != nil {
			return nil, err
		}
	}

	table := dataset.NormalizeWith(records, dataset.EngagementSchema, dataset.NormalizeOptions{Number: opt.Number, Logger: log})
	clean, err := dataset.DropNulls(table, append(append([]string(nil), features...), target)...)
	if err != nil {
		return nil, fmt.Errorf("clean dataset: %w", err)
	}
	res.Rows = clean.Len()
	res.Dropped = res.RawRows - res.Rows
	if res.Dropped > 0 {
		log.Info("rows dropped before training", "count", res.Dropped)
	}
	if clean.Len() == 0 {
		return nil, dataset.ErrEmptyDataset
	}

	if opt.SaveNormalized != "" {
		if err := dataset.WriteCSV(clean, opt.SaveNormalized); err != nil {
			return nil, fmt.Errorf("save normalized dataset: %w", err)
		}
		res.NormalizedPath = opt.SaveNormalized
	}

	fm, y, err := dataset.Split(clean, features, target)
	if err != nil {
		return nil, fmt.Errorf("split features: %w", err)
	}

	mopt := opt.Model
	mopt.Logger = log
	if opt.Plot {
		mopt.Plot = true
		mopt.Plotter = report.NewCharts(opt.OutputDir, log)
	}
	ev, err := model.TrainAndEvaluate(fm, y, mopt)
	if err != nil {
		return nil, err
	}
	res.Evaluation = ev

	if opt.SaveModel != "" {
		if err := ev.Model.Save(opt.SaveModel); err != nil {
			return nil, fmt.Errorf("save model: %w", err)
		}
		res.ModelPath = opt.SaveModel
	}
	res.Elapsed = time.Since(start)
	log.Info("pipeline finished", "source", source, "rows", res.Rows, "r2", ev.Score, "elapsed", res.Elapsed)
	return res, nil
}

func recordKeys(records []dataset.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}
