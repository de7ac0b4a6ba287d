package classifier

import (
	"fmt"
	"math"

	"github.com/zero-day-ai/triage/finding"
)

// LogisticRegression is an L2-regularised logistic model fitted by batch
// gradient descent on standardised features. It models P(false positive).
type LogisticRegression struct {
	Iterations   int       `json:"iterations"`
	LearningRate float64   `json:"learning_rate"`
	L2           float64   `json:"l2"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// NewLogisticRegression returns an unfitted model with default settings.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{Iterations: 1000, LearningRate: 0.1, L2: 0.01}
}

// Kind implements Model.
func (m *LogisticRegression) Kind() string { return KindLogistic }

// Fit implements Model.
func (m *LogisticRegression) Fit(x [][]float64, y []finding.Label) error {
	dim, err := checkTrainingSet(x, y)
	if err != nil {
		return err
	}
	if m.Iterations <= 0 {
		m.Iterations = 1000
	}
	if m.LearningRate <= 0 {
		m.LearningRate = 0.1
	}

	m.Mean, m.Scale = standardise(x, dim)
	z := make([][]float64, len(x))
	for i, row := range x {
		z[i] = m.transform(row)
	}

	m.Weights = make([]float64, dim)
	m.Bias = 0
	n := float64(len(x))
	grad := make([]float64, dim)

	for range m.Iterations {
		clear(grad)
		gb := 0.0
		for i, row := range z {
			diff := sigmoid(dot(m.Weights, row)+m.Bias) - float64(y[i])
			for j, v := range row {
				grad[j] += diff * v
			}
			gb += diff
		}
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * (grad[j]/n + m.L2*m.Weights[j])
		}
		m.Bias -= m.LearningRate * gb / n
	}
	return nil
}

// ProbTruePositive implements Model.
func (m *LogisticRegression) ProbTruePositive(x []float64) (float64, error) {
	if m.Weights == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("got %d features, want %d", len(x), len(m.Weights))
	}
	return 1 - sigmoid(dot(m.Weights, m.transform(x))+m.Bias), nil
}

// Importances returns the normalised absolute coefficients.
func (m *LogisticRegression) Importances() []float64 {
	out := make([]float64, len(m.Weights))
	total := 0.0
	for i, w := range m.Weights {
		out[i] = math.Abs(w)
		total += out[i]
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

// Validate implements Model.
func (m *LogisticRegression) Validate(dim int) error {
	if m.Weights == nil {
		return ErrNotFitted
	}
	if len(m.Weights) != dim || len(m.Mean) != dim || len(m.Scale) != dim {
		return fmt.Errorf("logistic model has %d/%d/%d parameters, want %d",
			len(m.Weights), len(m.Mean), len(m.Scale), dim)
	}
	return nil
}

func (m *LogisticRegression) transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - m.Mean[j]) / m.Scale[j]
	}
	return out
}

// standardise returns per-column mean and standard deviation. Constant
// columns get a scale of 1.
func standardise(x [][]float64, dim int) (mean, scale []float64) {
	mean, scale = columnStats(x, dim)
	for j, v := range scale {
		scale[j] = math.Sqrt(v)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

// columnStats returns per-column mean and population variance.
func columnStats(x [][]float64, dim int) (mean, variance []float64) {
	mean = make([]float64, dim)
	variance = make([]float64, dim)
	n := float64(len(x))
	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			variance[j] += d * d
		}
	}
	for j := range variance {
		variance[j] /= n
	}
	return mean, variance
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
