package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/engage-cli/internal/utils"
)

// ForestParams configures a random forest regressor.
type ForestParams struct {
	NEstimators     int
	MaxDepth        int // 0 = grow until leaves are pure or too small
	MinSamplesSplit int
	MaxFeatures     int // 0 = all features
	Bootstrap       bool
}

// DefaultForestParams returns 100 bootstrapped, fully grown trees.
func DefaultForestParams() ForestParams {
	return ForestParams{NEstimators: 100, MinSamplesSplit: 2, Bootstrap: true}
}

func (p ForestParams) normalized(nFeatures int) ForestParams {
	if p.NEstimators <= 0 {
		p.NEstimators = 100
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MaxDepth < 0 {
		p.MaxDepth = 0
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > nFeatures {
		p.MaxFeatures = nFeatures
	}
	return p
}

// Node is a regression tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     float64
}

func (n *Node) predict(x []float64) float64 {
	for n.Feature >= 0 && n.Left != nil && n.Right != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Forest is a bagged ensemble of regression trees. A fitted Forest is
// read-only and safe for concurrent Predict calls.
type Forest struct {
	Params   ForestParams
	Seed     int64
	Features []string
	Trees    []*Node
}

// NewForest returns an unfitted forest.
func NewForest(p ForestParams, seed int64) *Forest {
	return &Forest{Params: p, Seed: seed}
}

// Fit grows the ensemble on rows of X against y. All randomness comes from
// one source seeded with f.Seed, so equal inputs give equal trees.
func (f *Forest) Fit(X mat.Matrix, y []float64) error {
	if X == nil {
		return ErrEmptyDataset
	}
	rows := denseRows(X)
	if len(rows) == 0 {
		return ErrEmptyDataset
	}
	if len(rows) != len(y) {
		return fmt.Errorf("fit: %d rows but %d targets", len(rows), len(y))
	}
	nf := len(rows[0])
	if nf == 0 {
		return errors.New("fit: no features")
	}
	p := f.Params.normalized(nf)
	rnd := rand.New(rand.NewSource(f.Seed))
	f.Trees = make([]*Node, p.NEstimators)
	n := len(y)
	for t := range f.Trees {
		idx := make([]int, n)
		for i := range idx {
			if p.Bootstrap {
				idx[i] = rnd.Intn(n)
			} else {
				idx[i] = i
			}
		}
		b := &builder{X: rows, y: y, p: p, rnd: rnd}
		f.Trees[t] = b.grow(idx, 0)
	}
	f.Params = p
	return nil
}

// PredictRow averages the trees' predictions for one observation.
func (f *Forest) PredictRow(x []float64) float64 {
	if len(f.Trees) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns one prediction per row of X.
func (f *Forest) Predict(X mat.Matrix) []float64 {
	if X == nil {
		return nil
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f.PredictRow(r)
	}
	return out
}

// Fitted reports whether Fit has completed.
func (f *Forest) Fitted() bool { return f != nil && len(f.Trees) > 0 }

// Save writes the forest with encoding/gob.
func (f *Forest) Save(path string) error {
	if !f.Fitted() {
		return errors.New("save model: forest is not fitted")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// LoadForest reads a forest written by Save.
func LoadForest(path string) (*Forest, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer fh.Close()
	var f Forest
	if err := gob.NewDecoder(fh).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if !f.Fitted() {
		return nil, errors.New("decode model: no trees")
	}
	return &f, nil
}

func denseRows(X mat.Matrix) [][]float64 {
	r, _ := X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = mat.Row(nil, i, X)
	}
	return out
}

type builder struct {
	X   [][]float64
	y   []float64
	p   ForestParams
	rnd *rand.Rand
}

// grow builds a subtree over the (possibly repeated) sample indices idx.
func (b *builder) grow(idx []int, depth int) *Node {
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	leaf := &Node{Feature: -1, Value: sum / n}
	if len(idx) < b.p.MinSamplesSplit || (b.p.MaxDepth > 0 && depth >= b.p.MaxDepth) {
		return leaf
	}
	if sq-sum*sum/n <= 1e-12*math.Max(1, sq) {
		return leaf
	}

	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return leaf
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   feat,
		Threshold: thr,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
		Value:     leaf.Value,
	}
}

// bestSplit scans candidate features in a random order and returns the
// threshold minimising the summed squared error of both children. Ties keep
// the first candidate seen.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	nf := len(b.X[0])
	order := b.rnd.Perm(nf)[:b.p.MaxFeatures]
	sorted := make([]int, len(idx))
	bestFeat, bestThr, bestSSE := -1, 0.0, math.Inf(1)

	for _, f := range order {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			xa, xc := b.X[sorted[a]][f], b.X[sorted[c]][f]
			if xa == xc {
				return sorted[a] < sorted[c]
			}
			return xa < xc
		})
		var totSum, totSq float64
		for _, i := range sorted {
			totSum += b.y[i]
			totSq += b.y[i] * b.y[i]
		}
		var lSum, lSq float64
		n := len(sorted)
		for k := 1; k < n; k++ {
			yi := b.y[sorted[k-1]]
			lSum += yi
			lSq += yi * yi
			prev, cur := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if prev == cur {
				continue
			}
			nl, nr := float64(k), float64(n-k)
			rSum, rSq := totSum-lSum, totSq-lSq
			sse := (lSq - lSum*lSum/nl) + (rSq - rSum*rSum/nr)
			if sse < bestSSE {
				bestSSE = sse
				bestFeat = f
				bestThr = prev + (cur-prev)/2
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}
