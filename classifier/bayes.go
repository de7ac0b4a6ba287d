package classifier

import (
	"fmt"
	"math"

	"github.com/zero-day-ai/triage/finding"
)

const varSmoothing = 1e-9

// classStats holds per-feature Gaussian parameters for one label.
type classStats struct {
	Prior float64   `json:"prior"`
	Mean  []float64 `json:"mean"`
	Var   []float64 `json:"var"`
}

// NaiveBayes is a Gaussian naive Bayes model. Classes[0] describes true
// positives and Classes[1] false positives.
type NaiveBayes struct {
	Classes []classStats `json:"classes"`
}

// NewNaiveBayes returns an unfitted model.
func NewNaiveBayes() *NaiveBayes { return &NaiveBayes{} }

// Kind implements Model.
func (m *NaiveBayes) Kind() string { return KindNaiveBayes }

// Fit implements Model.
func (m *NaiveBayes) Fit(x [][]float64, y []finding.Label) error {
	dim, err := checkTrainingSet(x, y)
	if err != nil {
		return err
	}

	// Variance floor proportional to the largest feature variance.
	_, all := columnStats(x, dim)
	eps := varSmoothing
	for _, v := range all {
		eps = math.Max(eps, varSmoothing*v)
	}

	m.Classes = make([]classStats, 2)
	for c := range m.Classes {
		label := finding.Label(c)
		var rows [][]float64
		for i, row := range x {
			if y[i] == label {
				rows = append(rows, row)
			}
		}
		cs := classStats{Mean: make([]float64, dim), Var: make([]float64, dim)}
		if len(rows) > 0 {
			cs.Prior = float64(len(rows)) / float64(len(x))
			cs.Mean, cs.Var = columnStats(rows, dim)
		}
		for j := range cs.Var {
			cs.Var[j] += eps
		}
		m.Classes[c] = cs
	}
	return nil
}

// ProbTruePositive implements Model.
func (m *NaiveBayes) ProbTruePositive(x []float64) (float64, error) {
	if len(m.Classes) != 2 {
		return 0, ErrNotFitted
	}
	logp := make([]float64, 2)
	for c, cs := range m.Classes {
		if len(x) != len(cs.Mean) {
			return 0, fmt.Errorf("got %d features, want %d", len(x), len(cs.Mean))
		}
		if cs.Prior == 0 {
			logp[c] = math.Inf(-1)
			continue
		}
		lp := math.Log(cs.Prior)
		for j, v := range x {
			d := v - cs.Mean[j]
			lp -= 0.5*math.Log(2*math.Pi*cs.Var[j]) + d*d/(2*cs.Var[j])
		}
		logp[c] = lp
	}
	tp, fp := logp[finding.LabelTruePositive], logp[finding.LabelFalsePositive]
	switch {
	case math.IsInf(fp, -1):
		return 1, nil
	case math.IsInf(tp, -1):
		return 0, nil
	}
	return sigmoid(tp - fp), nil
}

// Validate implements Model.
func (m *NaiveBayes) Validate(dim int) error {
	if len(m.Classes) != 2 {
		return ErrNotFitted
	}
	for c, cs := range m.Classes {
		if len(cs.Mean) != dim || len(cs.Var) != dim {
			return fmt.Errorf("class %d has %d features, want %d", c, len(cs.Mean), dim)
		}
		for j, v := range cs.Var {
			if !(v > 0) {
				return fmt.Errorf("class %d feature %d has non-positive variance", c, j)
			}
		}
	}
	return nil
}
