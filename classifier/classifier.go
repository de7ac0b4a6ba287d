package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zero-day-ai/triage/features"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/triageerr"
)

// ErrNoModel is returned when an operation needs a trained model and none
// is loaded.
var ErrNoModel = errors.New("classifier: no trained model")

// Prediction is the classifier's verdict for one finding.
type Prediction struct {
	IsFalsePositive bool `json:"is_false_positive"`

	// Confidence is the probability of the predicted label.
	Confidence float64 `json:"confidence"`

	// MLScore is P(true positive).
	MLScore float64 `json:"ml_score"`

	FalsePositiveProbability float64            `json:"false_positive_probability"`
	FeatureImportance        map[string]float64 `json:"feature_importance,omitempty"`

	// Available is false for the neutral verdict.
	Available bool   `json:"available"`
	Note      string `json:"note,omitempty"`
}

// NeutralPrediction is the verdict used when no model can answer.
func NeutralPrediction(note string) Prediction {
	return Prediction{
		Confidence:               0.5,
		MLScore:                  0.5,
		FalsePositiveProbability: 0.5,
		Note:                     note,
	}
}

// Neutral is a predictor that always returns the neutral verdict. It stands
// in for the classifier when model inference is disabled.
type Neutral struct{}

// Predict returns NeutralPrediction.
func (Neutral) Predict(*finding.Finding) Prediction {
	return NeutralPrediction("classifier disabled")
}

// state is an immutable trained classifier.
type state struct {
	models       []Model
	weights      []float64
	featureNames []string
	threshold    float64
	trainedAt    time.Time
	importance   map[string]float64
}

func (s *state) init() *state {
	for _, m := range s.models {
		if imp, ok := m.(importancer); ok {
			vals := imp.Importances()
			s.importance = make(map[string]float64, len(vals))
			for i, v := range vals {
				if i < len(s.featureNames) {
					s.importance[s.featureNames[i]] = v
				}
			}
			break
		}
	}
	return s
}

// probTruePositive combines sub-model outputs. A single model is used
// directly; otherwise models and weights are truncated to the shorter of the
// two and the weights renormalised. A sub-model error counts as 0.5.
func (s *state) probTruePositive(x []float64) (float64, error) {
	if len(s.models) == 0 {
		return 0, ErrNoModel
	}
	if len(s.models) == 1 {
		return s.models[0].ProbTruePositive(x)
	}

	n := min(len(s.models), len(s.weights))
	total := 0.0
	for _, w := range s.weights[:n] {
		total += w
	}
	if n == 0 || total <= 0 {
		return 0, fmt.Errorf("%w: no positive ensemble weights", ErrNoModel)
	}

	score := 0.0
	for i, m := range s.models[:n] {
		p, err := m.ProbTruePositive(x)
		if err != nil {
			p = 0.5
		}
		score += p * s.weights[i]
	}
	return score / total, nil
}

// Classifier is the ensemble false-positive classifier. It is safe for
// concurrent use; predictions never block on training.
type Classifier struct {
	cfg       config
	logger    *slog.Logger
	extractor *features.Extractor
	feedback  FeedbackStore

	current atomic.Pointer[state]

	// writeMu serialises Train and the load operations.
	writeMu sync.Mutex

	unavailable sync.Once
}

// New returns a classifier with no model; it answers with the neutral
// verdict until Train or a load succeeds.
func New(opts ...Option) *Classifier {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	fb := cfg.feedback
	if fb == nil {
		fb = NewMemoryFeedbackStore()
	}
	return &Classifier{
		cfg:       cfg,
		logger:    logger.With("component", "classifier"),
		extractor: features.NewExtractor(),
		feedback:  fb,
	}
}

// Available reports whether a trained model is loaded.
func (c *Classifier) Available() bool {
	return c.current.Load() != nil
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Available           bool      `json:"available"`
	Models              []string  `json:"models,omitempty"`
	EnsembleWeights     []float64 `json:"ensemble_weights,omitempty"`
	ConfidenceThreshold float64   `json:"confidence_threshold"`
	TrainedAt           time.Time `json:"trained_at,omitempty"`
}

// Info returns a snapshot of the loaded model's metadata.
func (c *Classifier) Info() ModelInfo {
	st := c.current.Load()
	if st == nil {
		return ModelInfo{ConfidenceThreshold: c.cfg.threshold}
	}
	info := ModelInfo{
		Available:           true,
		EnsembleWeights:     append([]float64(nil), st.weights...),
		ConfidenceThreshold: st.threshold,
		TrainedAt:           st.trainedAt,
	}
	for _, m := range st.models {
		info.Models = append(info.Models, m.Kind())
	}
	return info
}

// Predict classifies a finding. It never fails: without a model, or when
// inference errors or panics, it returns the neutral verdict with a note.
func (c *Classifier) Predict(f *finding.Finding) (pred Prediction) {
	st := c.current.Load()
	if st == nil {
		c.unavailable.Do(func() {
			err := triageerr.New("classifier", "predict", triageerr.KindClassifierUnavailable, "no trained model")
			c.logger.Warn("classifier unavailable, using neutral verdict", "error", err)
		})
		return NeutralPrediction("classifier not available")
	}

	defer func() {
		if r := recover(); r != nil {
			err := triageerr.New("classifier", "predict", triageerr.KindPredictionFailure, "model panicked").
				WithCause(fmt.Errorf("%v", r))
			c.logger.Error("prediction failed", "finding_id", findingID(f), "error", err)
			pred = NeutralPrediction(fmt.Sprintf("prediction error: %v", r))
		}
	}()

	vec := c.extractor.Extract(f)
	ptp, err := st.probTruePositive(vec.Slice())
	if err != nil {
		c.logger.Error("prediction failed", "finding_id", findingID(f), "error", err)
		return NeutralPrediction(fmt.Sprintf("prediction error: %v", err))
	}

	pfp := 1 - ptp
	return Prediction{
		IsFalsePositive:          pfp > 0.5,
		Confidence:               max(ptp, pfp),
		MLScore:                  ptp,
		FalsePositiveProbability: pfp,
		FeatureImportance:        maps.Clone(st.importance),
		Available:                true,
	}
}

// swap publishes a new state under the write lock.
func (c *Classifier) swap(st *state) {
	c.current.Store(st.init())
}

func findingID(f *finding.Finding) string {
	if f == nil {
		return ""
	}
	return f.ID
}
