package classifier

import (
	"log/slog"
	"time"
)

// Defaults.
const (
	DefaultConfidenceThreshold = 0.80
	DefaultTestFraction        = 0.2
)

// DefaultEnsembleWeights returns the weights for forest, logistic regression
// and naive Bayes, in that order.
func DefaultEnsembleWeights() []float64 {
	return []float64{0.4, 0.4, 0.2}
}

// Option configures a Classifier.
type Option func(*config)

type config struct {
	weights      []float64
	threshold    float64
	forest       ForestParams
	testFraction float64
	logger       *slog.Logger
	feedback     FeedbackStore
	now          func() time.Time
	newModels    func(ForestParams) []Model
	modelPath    string
}

func defaultConfig() config {
	return config{
		weights:      DefaultEnsembleWeights(),
		threshold:    DefaultConfidenceThreshold,
		forest:       DefaultForestParams(),
		testFraction: DefaultTestFraction,
		now:          time.Now,
		newModels:    defaultModels,
		modelPath:    DefaultModelPath,
	}
}

// defaultModels builds the untrained ensemble. The forest comes first and
// supplies feature importances.
func defaultModels(p ForestParams) []Model {
	return []Model{
		NewRandomForest(p),
		NewLogisticRegression(),
		NewNaiveBayes(),
	}
}

// WithEnsembleWeights sets the per-model weights used by Train. Weights
// beyond the number of models are ignored.
func WithEnsembleWeights(w ...float64) Option {
	return func(c *config) {
		c.weights = append([]float64(nil), w...)
	}
}

// WithConfidenceThreshold sets the threshold recorded with trained models.
func WithConfidenceThreshold(t float64) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithForestParams sets the random forest parameters. The seed also drives
// the train/test split.
func WithForestParams(p ForestParams) Option {
	return func(c *config) {
		c.forest = p.withDefaults()
	}
}

// WithTestFraction sets the fraction of each label held out by Train.
func WithTestFraction(f float64) Option {
	return func(c *config) {
		if f > 0 && f < 1 {
			c.testFraction = f
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithFeedbackStore sets where AddFeedback records corrections.
// Defaults to an in-memory store.
func WithFeedbackStore(s FeedbackStore) Option {
	return func(c *config) {
		c.feedback = s
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// DefaultModelPath is used by SaveModel and LoadModel when no path is given
// and none was configured.
const DefaultModelPath = "models/fp_classifier.json"

// WithModelPath sets the default artifact path for SaveModel and LoadModel.
func WithModelPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.modelPath = path
		}
	}
}
