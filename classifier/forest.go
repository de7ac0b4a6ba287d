package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/zero-day-ai/triage/finding"
)

// ForestParams configures a RandomForest.
type ForestParams struct {
	Trees           int   `json:"trees" yaml:"trees"`
	MaxDepth        int   `json:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features,omitempty" yaml:"max_features,omitempty"`
	Seed            int64 `json:"seed" yaml:"seed"`
}

// DefaultForestParams returns 100 trees of depth at most 10 with seed 42.
func DefaultForestParams() ForestParams {
	return ForestParams{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

func (p ForestParams) withDefaults() ForestParams {
	d := DefaultForestParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = d.MinSamplesSplit
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	return p
}

// treeNode is a node of a flattened CART tree. Leaves have Left == -1 and
// carry the fraction of true positives that reached them.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Prob      float64 `json:"p"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// RandomForest is a bagged ensemble of Gini-split decision trees.
type RandomForest struct {
	Params     ForestParams `json:"params"`
	Dim        int          `json:"dim"`
	Forest     []tree       `json:"trees"`
	Importance []float64    `json:"importances"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(p ForestParams) *RandomForest {
	return &RandomForest{Params: p.withDefaults()}
}

// Kind implements Model.
func (f *RandomForest) Kind() string { return KindRandomForest }

// Fit implements Model.
func (f *RandomForest) Fit(x [][]float64, y []finding.Label) error {
	dim, err := checkTrainingSet(x, y)
	if err != nil {
		return err
	}
	f.Params = f.Params.withDefaults()
	f.Dim = dim

	mtry := f.Params.MaxFeatures
	if mtry <= 0 || mtry > dim {
		mtry = max(1, int(math.Sqrt(float64(dim))))
	}

	rng := rand.New(rand.NewSource(f.Params.Seed))
	imp := make([]float64, dim)
	f.Forest = make([]tree, 0, f.Params.Trees)

	for range f.Params.Trees {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		b := &treeBuilder{x: x, y: y, params: f.Params, mtry: mtry, rng: rng, imp: imp}
		b.build(sample, 0)
		f.Forest = append(f.Forest, tree{Nodes: b.nodes})
	}

	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	f.Importance = imp
	return nil
}

// ProbTruePositive implements Model.
func (f *RandomForest) ProbTruePositive(x []float64) (float64, error) {
	if len(f.Forest) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.Dim {
		return 0, fmt.Errorf("got %d features, want %d", len(x), f.Dim)
	}
	sum := 0.0
	for i := range f.Forest {
		sum += f.Forest[i].predict(x)
	}
	return sum / float64(len(f.Forest)), nil
}

// Importances implements importancer.
func (f *RandomForest) Importances() []float64 {
	return f.Importance
}

// Validate implements Model.
func (f *RandomForest) Validate(dim int) error {
	if len(f.Forest) == 0 {
		return ErrNotFitted
	}
	if f.Dim != dim {
		return fmt.Errorf("forest trained on %d features, want %d", f.Dim, dim)
	}
	for ti, t := range f.Forest {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Left < 0 {
				continue
			}
			if n.Feature < 0 || n.Feature >= dim {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

type treeBuilder struct {
	x      [][]float64
	y      []finding.Label
	params ForestParams
	mtry   int
	rng    *rand.Rand
	imp    []float64
	nodes  []treeNode
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	tp := 0
	for _, i := range idx {
		if b.y[i] == finding.LabelTruePositive {
			tp++
		}
	}
	n := len(idx)
	self := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Left: -1, Right: -1, Prob: float64(tp) / float64(n)})

	if depth >= b.params.MaxDepth || n < b.params.MinSamplesSplit || tp == 0 || tp == n {
		return self
	}

	feature, threshold, gain, ok := b.bestSplit(idx, tp)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.imp[feature] += gain
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Feature = feature
	b.nodes[self].Threshold = threshold
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit searches a random subset of features for the threshold with the
// largest weighted Gini decrease that keeps MinSamplesLeaf on both sides.
// If none of the first mtry features yields a split, the search continues
// through the remaining features.
func (b *treeBuilder) bestSplit(idx []int, tp int) (int, float64, float64, bool) {
	n := len(idx)
	parent := float64(n) * gini(tp, n)

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	sorted := make([]int, n)

	for k, feature := range b.rng.Perm(len(b.x[0])) {
		if k >= b.mtry && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][feature] < b.x[sorted[c]][feature]
		})

		leftTP := 0
		for k := 0; k < n-1; k++ {
			if b.y[sorted[k]] == finding.LabelTruePositive {
				leftTP++
			}
			lo, hi := b.x[sorted[k]][feature], b.x[sorted[k+1]][feature]
			if lo == hi {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.params.MinSamplesLeaf || nr < b.params.MinSamplesLeaf {
				continue
			}
			impurity := float64(nl)*gini(leftTP, nl) + float64(nr)*gini(tp-leftTP, nr)
			if g := parent - impurity; g > bestGain {
				bestFeature, bestThreshold, bestGain = feature, (lo+hi)/2, g
			}
		}
	}

	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
