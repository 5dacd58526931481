package report

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/logging"
	"github.com/KaramelBytes/engage-cli/internal/utils"
)

// Chart file names written under Charts.OutDir.
const (
	ParityFile       = "parity.png"
	InteractionsFile = "interactions.png"
	TrendFile        = "likes_trend.png"
	ScatterFile      = "likes_vs_comments.png"
	CorrelationFile  = "correlations.png"
)

var (
	likesColor    = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	commentsColor = color.RGBA{R: 230, G: 120, B: 30, A: 220}
	idealColor    = color.RGBA{R: 200, G: 30, B: 30, A: 200}
)

// RenderError wraps a failure to draw or write one chart.
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render %s: %v", e.Chart, e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// Charts renders PNG charts into OutDir.
type Charts struct {
	OutDir string
	Width  vg.Length
	Height vg.Length
	Logger *slog.Logger
}

// NewCharts returns 8x6 inch charts written to outDir.
func NewCharts(outDir string, log *slog.Logger) *Charts {
	return &Charts{OutDir: outDir, Width: 8 * vg.Inch, Height: 6 * vg.Inch, Logger: log}
}

func (c *Charts) save(p *plot.Plot, name string) (string, error) {
	if err := utils.EnsureDir(c.OutDir); err != nil {
		return "", &RenderError{Chart: name, Err: err}
	}
	w, h := c.Width, c.Height
	if w <= 0 || h <= 0 {
		w, h = 8*vg.Inch, 6*vg.Inch
	}
	out := filepath.Join(c.OutDir, name)
	if err := p.Save(w, h, out); err != nil {
		return "", &RenderError{Chart: name, Err: err}
	}
	logging.OrDiscard(c.Logger).Debug("chart written", "path", out)
	return out, nil
}

// Parity draws true against predicted values with the y = x reference line.
func (c *Charts) Parity(yTrue, yPred []float64, score float64) (string, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return "", &RenderError{Chart: ParityFile, Err: fmt.Errorf("need matching non-empty series, got %d and %d", len(yTrue), len(yPred))}
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Actual vs predicted likes (R² = %.3f)", score)
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range yTrue {
		pts[i] = plotter.XY{X: yTrue[i], Y: yPred[i]}
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return "", &RenderError{Chart: ParityFile, Err: err}
	}
	sc.GlyphStyle.Color = likesColor
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)
	p.Legend.Add("posts", sc)

	ideal, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", &RenderError{Chart: ParityFile, Err: err}
	}
	ideal.Color = idealColor
	ideal.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ideal)
	p.Legend.Add("ideal", ideal)
	p.Add(plotter.NewGrid())
	return c.save(p, ParityFile)
}

// Posts renders the post charts for a table in the posts layout: grouped
// likes/comments bars, the likes trend over post_date, a likes vs comments
// scatter and pairwise correlations. It returns the written paths and the
// joined RenderErrors of the charts that failed. An empty table renders
// nothing.
func (c *Charts) Posts(t *dataset.Table) ([]string, error) {
	log := logging.OrDiscard(c.Logger)
	if t.Len() == 0 {
		log.Warn("no posts to chart")
		return nil, nil
	}
	likes, okL := t.Column(dataset.ColLikes)
	comments, okC := t.Column(dataset.ColComments)
	if !okL || !okC {
		return nil, &RenderError{Chart: "posts", Err: &dataset.MissingColumnError{Column: missingOf(okL)}}
	}
	labels := postLabels(t)

	var paths []string
	var errs []error
	record := func(path string, err error) {
		if err != nil {
			log.Warn("chart not rendered", "error", err)
			errs = append(errs, err)
			return
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	record(c.interactions(labels, likes, comments))
	record(c.trend(t, likes))
	record(c.likesVsComments(likes, comments))
	record(c.correlations(t))
	return paths, errors.Join(errs...)
}

func missingOf(haveLikes bool) string {
	if haveLikes {
		return dataset.ColComments
	}
	return dataset.ColLikes
}

func postLabels(t *dataset.Table) []string {
	out := make([]string, t.Len())
	codes, ok := t.Column("shortcode")
	for i := range out {
		if ok && !codes[i].IsNull() {
			out[i] = codes[i].Format(dataset.Text)
		} else {
			out[i] = fmt.Sprintf("#%d", i+1)
		}
	}
	return out
}

func numbers(vals []dataset.Value) plotter.Values {
	out := make(plotter.Values, len(vals))
	for i, v := range vals {
		if f, ok := valueNumber(v); ok {
			out[i] = f
		}
	}
	return out
}

func valueNumber(v dataset.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	if v.Str == "" {
		return v.Num, true
	}
	return dataset.ParseNumber(v.Str, dataset.NumberFormat{})
}

func (c *Charts) interactions(labels []string, likes, comments []dataset.Value) (string, error) {
	p := plot.New()
	p.Title.Text = "Likes and comments per post"
	p.Y.Label.Text = "interactions"
	w := vg.Points(10)

	lb, err := plotter.NewBarChart(numbers(likes), w)
	if err != nil {
		return "", &RenderError{Chart: InteractionsFile, Err: err}
	}
	lb.Color = likesColor
	lb.LineStyle.Width = vg.Length(0)
	lb.Offset = -w / 2

	cb, err := plotter.NewBarChart(numbers(comments), w)
	if err != nil {
		return "", &RenderError{Chart: InteractionsFile, Err: err}
	}
	cb.Color = commentsColor
	cb.LineStyle.Width = vg.Length(0)
	cb.Offset = w / 2

	p.Add(lb, cb)
	p.Legend.Add("likes", lb)
	p.Legend.Add("comments", cb)
	p.Legend.Top = true
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
	return c.save(p, InteractionsFile)
}

// trend plots likes against post_date; rows without a parseable date are
// skipped and a table without dates renders nothing.
func (c *Charts) trend(t *dataset.Table, likes []dataset.Value) (string, error) {
	dates, ok := t.Column("post_date")
	if !ok {
		return "", nil
	}
	var pts plotter.XYs
	for i, d := range dates {
		if d.IsNull() {
			continue
		}
		ts, ok := dataset.ParseTime(d.Str)
		if !ok {
			continue
		}
		y, ok := valueNumber(likes[i])
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(ts.Unix()), Y: y})
	}
	if len(pts) == 0 {
		logging.OrDiscard(c.Logger).Debug("no parseable post dates, skipping trend chart")
		return "", nil
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })

	p := plot.New()
	p.Title.Text = "Likes over time"
	p.Y.Label.Text = "likes"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return "", &RenderError{Chart: TrendFile, Err: err}
	}
	line.Color = likesColor
	points.GlyphStyle.Color = likesColor
	p.Add(line, points, plotter.NewGrid())
	return c.save(p, TrendFile)
}

func (c *Charts) likesVsComments(likes, comments []dataset.Value) (string, error) {
	var pts plotter.XYs
	for i := range likes {
		x, okX := valueNumber(likes[i])
		y, okY := valueNumber(comments[i])
		if okX && okY {
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
	}
	if len(pts) == 0 {
		return "", &RenderError{Chart: ScatterFile, Err: errors.New("no rows with both likes and comments")}
	}
	p := plot.New()
	p.Title.Text = "Likes vs comments"
	p.X.Label.Text = "likes"
	p.Y.Label.Text = "comments"
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return "", &RenderError{Chart: ScatterFile, Err: err}
	}
	sc.GlyphStyle.Color = commentsColor
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc, plotter.NewGrid())
	return c.save(p, ScatterFile)
}

// correlations draws Pearson r for each pair of numeric columns.
func (c *Charts) correlations(t *dataset.Table) (string, error) {
	opt := dataset.DefaultDescribeOptions()
	opt.SampleRows = 0
	opt.Outliers = false
	pairs := dataset.Describe("", t, opt).Corr.TopPairs(0)
	if len(pairs) == 0 {
		return "", nil
	}
	vals := make(plotter.Values, len(pairs))
	names := make([]string, len(pairs))
	for i, pc := range pairs {
		vals[i] = pc.R
		names[i] = pc.A + " ~ " + pc.B
	}
	p := plot.New()
	p.Title.Text = "Pearson correlation"
	p.Y.Label.Text = "r"
	p.Y.Min, p.Y.Max = -1, 1
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return "", &RenderError{Chart: CorrelationFile, Err: err}
	}
	bars.Color = likesColor
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)
	return c.save(p, CorrelationFile)
}
