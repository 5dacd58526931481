package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
)

var (
	// ErrEmptyDataset is returned when no rows are available to train or test on.
	ErrEmptyDataset = dataset.ErrEmptyDataset
	// ErrInvalidFraction is returned for a test fraction outside (0,1).
	ErrInvalidFraction = errors.New("test fraction must be in (0,1)")
)

// SplitError reports a test fraction that leaves either side of the split empty.
type SplitError struct {
	Rows         int
	TestFraction float64
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("cannot split %d rows with test fraction %.3g: both train and test need at least one row", e.Rows, e.TestFraction)
}

func (e *SplitError) Unwrap() error { return ErrEmptyDataset }

// TrainTestSplit permutes 0..n-1 with a source seeded by seed and returns the
// first ceil(testFraction*n) indices as the test set and the rest as the
// train set. The same (n, testFraction, seed) always yields the same split.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, fmt.Errorf("%w, got %v", ErrInvalidFraction, testFraction)
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n == 0 || nTest < 1 || n-nTest < 1 {
		return nil, nil, &SplitError{Rows: n, TestFraction: testFraction}
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// subsetRows copies the selected rows of X into a new dense matrix.
func subsetRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for k, i := range idx {
		out.SetRow(k, mat.Row(nil, i, X))
	}
	return out
}

func subsetValues(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
