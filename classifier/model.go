package classifier

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/triage/finding"
)

// ErrNotFitted is returned by a model asked to predict before Fit.
var ErrNotFitted = errors.New("classifier: model not fitted")

// Model is a binary probabilistic classifier over feature vectors.
// Implementations are immutable after Fit and safe for concurrent prediction.
type Model interface {
	// Kind is the stable identifier written into artifacts.
	Kind() string

	// Fit trains the model. x rows must all have the same length.
	Fit(x [][]float64, y []finding.Label) error

	// ProbTruePositive returns P(true positive | x).
	ProbTruePositive(x []float64) (float64, error)

	// Validate checks internal consistency against the expected input width.
	Validate(dim int) error
}

// importancer is implemented by models that can rank features.
type importancer interface {
	Importances() []float64
}

// Model kinds.
const (
	KindRandomForest = "random_forest"
	KindLogistic     = "logistic_regression"
	KindNaiveBayes   = "gaussian_naive_bayes"
)

// newModel returns an empty model for an artifact kind.
func newModel(kind string) (Model, error) {
	switch kind {
	case KindRandomForest:
		return &RandomForest{}, nil
	case KindLogistic:
		return &LogisticRegression{}, nil
	case KindNaiveBayes:
		return &NaiveBayes{}, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", kind)
	}
}

func checkTrainingSet(x [][]float64, y []finding.Label) (int, error) {
	if len(x) == 0 {
		return 0, errors.New("empty training set")
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d rows but %d labels", len(x), len(y))
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), dim)
		}
		if !y[i].IsValid() {
			return 0, fmt.Errorf("row %d has invalid label %d", i, int(y[i]))
		}
	}
	return dim, nil
}
