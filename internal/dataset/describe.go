package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DescribeOptions controls dataset summaries.
type DescribeOptions struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group means for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD); counts |z| > OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	Number           NumberFormat
}

// DefaultDescribeOptions returns reasonable defaults for dataset summaries.
func DefaultDescribeOptions() DescribeOptions {
	return DescribeOptions{SampleRows: 5, Correlations: true, Outliers: true, OutlierThreshold: 3.5}
}

// Summary is a markdown-friendly description of a table.
type Summary struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Groups   []GroupResult
	Corr     *CorrMatrix
	Warnings []string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	NonNull int
	Missing int
	Unique  int
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	TopValues        []CategoryCount
}

// CategoryCount is one of the most frequent values of a text column.
type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures the mean of each numeric column per group key.
type GroupResult struct {
	Key   string
	Size  int
	Means map[string]float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Describe summarizes a table. Text cells that parse as numbers count as numeric.
func Describe(name string, t *Table, opt DescribeOptions) *Summary {
	s := &Summary{Name: name, Rows: t.Len()}
	ncol := len(t.Columns)
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	nums := make([][]float64, ncol)   // parsed numeric stream per column
	present := make([][]bool, ncol)   // row-aligned numeric presence
	values := make([][]float64, ncol) // row-aligned numeric value
	for j := range t.Columns {
		present[j] = make([]bool, t.Len())
		values[j] = make([]float64, t.Len())
	}
	cats := make([]map[string]int, ncol)
	dtCnt := make([]int, ncol)
	txtCnt := make([]int, ncol)
	for j := range cats {
		cats[j] = map[string]int{}
	}

	for i, r := range t.Rows {
		if len(s.Samples) < sampleRows {
			row := make([]string, ncol)
			for j, c := range t.Columns {
				row[j] = r[j].Format(c.Kind)
			}
			s.Samples = append(s.Samples, row)
		}
		for j, c := range t.Columns {
			v := r[j]
			if v.IsNull() {
				continue
			}
			if x, ok := cellNumberWith(c, v, opt.Number); ok {
				nums[j] = append(nums[j], x)
				present[j][i] = true
				values[j][i] = x
				continue
			}
			if _, ok := parseTimeMaybe(v.Str); ok {
				dtCnt[j]++
				continue
			}
			txtCnt[j]++
			if len(cats[j]) <= 10000 && len(v.Str) <= 64 {
				cats[j][v.Str]++
			}
		}
	}

	var numCols []int
	for j, c := range t.Columns {
		nonNull := len(nums[j]) + dtCnt[j] + txtCnt[j]
		cs := ColumnSummary{Name: c.Name, NonNull: nonNull, Missing: t.Len() - nonNull, Kind: "unknown"}
		switch {
		case len(nums[j]) > 0 && len(nums[j]) >= dtCnt[j] && len(nums[j]) >= txtCnt[j]:
			cs.Kind = "numeric"
			xs := nums[j]
			cs.Min, cs.Max = floatsMin(xs), floatsMax(xs)
			cs.Mean, cs.Std = stat.MeanStdDev(xs, nil)
			if len(xs) < 2 {
				cs.Std = 0
			}
			numCols = append(numCols, j)
			if opt.Outliers && len(xs) >= 8 {
				thr := opt.OutlierThreshold
				if thr <= 0 {
					thr = 3.5
				}
				cs.OutliersCount, cs.OutliersMaxAbsZ = robustOutliers(xs, thr)
				cs.OutlierThreshold = thr
			}
		case dtCnt[j] > 0 && dtCnt[j] >= txtCnt[j]:
			cs.Kind = "datetime"
		case len(cats[j]) > 0:
			cs.Kind = "categorical"
			tops := make([]CategoryCount, 0, len(cats[j]))
			for k, n := range cats[j] {
				tops = append(tops, CategoryCount{Value: k, Count: n})
			}
			sort.Slice(tops, func(a, b int) bool {
				if tops[a].Count == tops[b].Count {
					return tops[a].Value < tops[b].Value
				}
				return tops[a].Count > tops[b].Count
			})
			cs.Unique = len(tops)
			if len(tops) > 8 {
				tops = tops[:8]
			}
			cs.TopValues = tops
		case txtCnt[j] > 0:
			cs.Kind = "text"
		}
		s.Cols = append(s.Cols, cs)
	}

	if len(opt.GroupBy) > 0 {
		s.Groups = groupMeans(t, opt.GroupBy, numCols, present, values)
		if len(s.Groups) == 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("group-by columns not found: %s", strings.Join(opt.GroupBy, ", ")))
		}
	}

	if opt.Correlations && len(numCols) >= 2 {
		n := len(numCols)
		m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
		for a, ja := range numCols {
			m.Columns[a] = t.Columns[ja].Name
			m.Values[a] = make([]float64, n)
		}
		for a := 0; a < n; a++ {
			m.Values[a][a] = 1
			for b := a + 1; b < n; b++ {
				r := pairwiseCorrelation(present[numCols[a]], values[numCols[a]], present[numCols[b]], values[numCols[b]])
				m.Values[a][b] = r
				m.Values[b][a] = r
			}
		}
		s.Corr = m
	}
	return s
}

// TopPairs lists correlation pairs by descending |r|.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// pairwiseCorrelation is Pearson's r over rows where both columns are present.
// Degenerate inputs (fewer than two rows, zero variance) yield 0.
func pairwiseCorrelation(pa []bool, xa []float64, pb []bool, xb []float64) float64 {
	var x, y []float64
	for i := range pa {
		if pa[i] && pb[i] {
			x = append(x, xa[i])
			y = append(y, xb[i])
		}
	}
	if len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func groupMeans(t *Table, by []string, numCols []int, present [][]bool, values [][]float64) []GroupResult {
	var idx []int
	for _, name := range by {
		if j := t.Index(name); j >= 0 {
			idx = append(idx, j)
		}
	}
	if len(idx) == 0 {
		return nil
	}
	type acc struct {
		size int
		sum  map[int]float64
		cnt  map[int]int
	}
	groups := map[string]*acc{}
	for i, r := range t.Rows {
		parts := make([]string, len(idx))
		for k, j := range idx {
			parts[k] = fmt.Sprintf("%s=%s", t.Columns[j].Name, safeVal(r[j].Format(t.Columns[j].Kind)))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{sum: map[int]float64{}, cnt: map[int]int{}}
			groups[key] = g
		}
		g.size++
		for _, j := range numCols {
			if present[j][i] {
				g.sum[j] += values[j][i]
				g.cnt[j]++
			}
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for k, g := range groups {
		gr := GroupResult{Key: k, Size: g.size, Means: map[string]float64{}}
		for _, j := range numCols {
			if g.cnt[j] > 0 {
				gr.Means[t.Columns[j].Name] = g.sum[j] / float64(g.cnt[j])
			}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func cellNumberWith(c Column, v Value, nf NumberFormat) (float64, bool) {
	if c.Kind == Numeric {
		return v.Num, v.Valid
	}
	return ParseNumber(v.Str, nf)
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime parses the date layouts accepted in post_date columns.
func ParseTime(s string) (time.Time, bool) { return parseTimeMaybe(strings.TrimSpace(s)) }

// Markdown renders a compact report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(s.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
		case "categorical":
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}
	if len(s.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range s.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Means))
			for k := range g.Means {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g\n", k, g.Means[k]))
			}
		}
	}
	if pairs := s.Corr.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(s.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n| ")
		for i, c := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range s.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func floatsMin(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		m = math.Min(m, x)
	}
	return m
}

func floatsMax(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}

// robustOutliers counts values with |0.6745*(x-median)/MAD| > thr.
func robustOutliers(xs []float64, thr float64) (int, float64) {
	median, mad := medianMAD(xs)
	if mad == 0 {
		return 0, 0
	}
	cnt, maxAbsZ := 0, 0.0
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		maxAbsZ = math.Max(maxAbsZ, az)
	}
	return cnt, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.LinInterp, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.LinInterp, dev, nil)
	return
}
