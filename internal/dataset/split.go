package dataset

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// FeatureMatrix is a read-only, row-aligned projection of numeric predictors.
// X is nil when there are no rows.
type FeatureMatrix struct {
	Columns []string
	X       *mat.Dense
}

// Rows returns the number of observations.
func (f *FeatureMatrix) Rows() int {
	if f == nil || f.X == nil {
		return 0
	}
	r, _ := f.X.Dims()
	return r
}

// Row returns a copy of row i.
func (f *FeatureMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, f.X)
}

// RowsSlice returns copies of all rows.
func (f *FeatureMatrix) RowsSlice() [][]float64 {
	n := f.Rows()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = f.Row(i)
	}
	return out
}

// Target is the numeric column being predicted, aligned with a FeatureMatrix.
type Target struct {
	Name   string
	Values []float64
}

// cellNumber reads a numeric cell; text cells are parsed.
func cellNumber(c Column, v Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	if c.Kind == Numeric {
		return v.Num, true
	}
	return ParseNumber(v.Str, NumberFormat{})
}

// Split projects t onto the feature columns and the target column. Every
// named column must exist (MissingColumnError otherwise) and must hold numbers
// and no nulls in the given rows (NullValueError otherwise); callers
// remove partial-null rows with DropNulls beforehand.
func Split(t *Table, features []string, target string) (*FeatureMatrix, *Target, error) {
	if len(features) == 0 {
		return nil, nil, errors.New("split: no feature columns")
	}
	fidx := make([]int, len(features))
	for i, name := range features {
		j := t.Index(name)
		if j < 0 {
			return nil, nil, &MissingColumnError{Column: name}
		}
		fidx[i] = j
	}
	tidx := t.Index(target)
	if tidx < 0 {
		return nil, nil, &MissingColumnError{Column: target}
	}

	n := t.Len()
	fm := &FeatureMatrix{Columns: append([]string(nil), features...)}
	y := &Target{Name: target, Values: make([]float64, n)}
	if n == 0 {
		return fm, y, nil
	}
	data := make([]float64, 0, n*len(features))
	for i, r := range t.Rows {
		for k, j := range fidx {
			x, ok := cellNumber(t.Columns[j], r[j])
			if !ok {
				return nil, nil, &NullValueError{Column: features[k], Row: i}
			}
			data = append(data, x)
		}
		yv, ok := cellNumber(t.Columns[tidx], r[tidx])
		if !ok {
			return nil, nil, &NullValueError{Column: target, Row: i}
		}
		y.Values[i] = yv
	}
	fm.X = mat.NewDense(n, len(features), data)
	return fm, y, nil
}
