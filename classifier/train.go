package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/triage/features"
	"github.com/zero-day-ai/triage/finding"
)

// ErrInsufficientData is returned by Train when either label has fewer than
// two examples, which a stratified split cannot serve.
var ErrInsufficientData = errors.New("classifier: need at least two examples of each label")

// Metrics reports held-out performance of a training run. The positive
// class is false positive.
type Metrics struct {
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1              float64   `json:"f1_score"`
	Accuracy        float64   `json:"accuracy"`
	TrainingSamples int       `json:"training_samples"`
	TestSamples     int       `json:"test_samples"`
	Timestamp       time.Time `json:"timestamp"`
}

// Train fits a fresh ensemble on a stratified split of examples, evaluates
// it on the held-out part and publishes it. Predictions in flight keep using
// the previous model until the swap.
func (c *Classifier) Train(examples []LabeledFinding) (Metrics, error) {
	labels := make([]finding.Label, len(examples))
	counts := map[finding.Label]int{}
	for i, ex := range examples {
		if !ex.Label.IsValid() {
			return Metrics{}, fmt.Errorf("example %d: invalid label %d", i, int(ex.Label))
		}
		labels[i] = ex.Label
		counts[ex.Label]++
	}
	if counts[finding.LabelTruePositive] < 2 || counts[finding.LabelFalsePositive] < 2 {
		return Metrics{}, fmt.Errorf("%w (tp=%d, fp=%d)", ErrInsufficientData,
			counts[finding.LabelTruePositive], counts[finding.LabelFalsePositive])
	}

	x := make([][]float64, len(examples))
	for i := range examples {
		x[i] = c.extractor.Extract(&examples[i].Finding).Slice()
	}

	trainIdx, testIdx := stratifiedSplit(labels, c.cfg.testFraction, c.cfg.forest.Seed)
	xTrain, yTrain := gather(x, labels, trainIdx)
	xTest, yTest := gather(x, labels, testIdx)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	models := c.cfg.newModels(c.cfg.forest)
	for _, m := range models {
		if err := m.Fit(xTrain, yTrain); err != nil {
			return Metrics{}, fmt.Errorf("fit %s: %w", m.Kind(), err)
		}
	}

	st := (&state{
		models:       models,
		weights:      append([]float64(nil), c.cfg.weights...),
		featureNames: features.Names(),
		threshold:    c.cfg.threshold,
		trainedAt:    c.cfg.now(),
	}).init()

	metrics, err := evaluate(st, xTest, yTest)
	if err != nil {
		return Metrics{}, err
	}
	metrics.TrainingSamples = len(trainIdx)
	metrics.TestSamples = len(testIdx)
	metrics.Timestamp = st.trainedAt

	c.current.Store(st)
	c.logger.Info("model trained",
		"precision", metrics.Precision,
		"recall", metrics.Recall,
		"f1", metrics.F1,
		"training_samples", metrics.TrainingSamples,
		"test_samples", metrics.TestSamples)
	return metrics, nil
}

// AddFeedback records a label correction. The loaded model is not changed;
// corrections take effect at the next RetrainWithFeedback.
func (c *Classifier) AddFeedback(ctx context.Context, f finding.Finding, label finding.Label) error {
	if !label.IsValid() {
		return fmt.Errorf("invalid label %d", int(label))
	}
	fb := Feedback{
		ID:         uuid.NewString(),
		Finding:    f,
		Label:      label,
		RecordedAt: c.cfg.now().UTC(),
	}
	if err := c.feedback.Add(ctx, fb); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	c.logger.Info("feedback received", "finding_id", f.ID, "label", label.String(), "feedback_id", fb.ID)
	return nil
}

// Feedback returns the recorded corrections.
func (c *Classifier) Feedback(ctx context.Context) ([]Feedback, error) {
	return c.feedback.List(ctx)
}

// RetrainWithFeedback trains on base merged with all recorded feedback.
// Feedback for a finding ID already in base replaces that example's label;
// the latest correction wins.
func (c *Classifier) RetrainWithFeedback(ctx context.Context, base []LabeledFinding) (Metrics, error) {
	fb, err := c.feedback.List(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("list feedback: %w", err)
	}
	merged := mergeFeedback(base, fb)
	c.logger.Info("retraining with feedback", "base", len(base), "feedback", len(fb), "examples", len(merged))
	return c.Train(merged)
}

func mergeFeedback(base []LabeledFinding, fb []Feedback) []LabeledFinding {
	out := slices.Clone(base)
	byID := make(map[string]int, len(out))
	for i, ex := range out {
		if ex.Finding.ID != "" {
			byID[ex.Finding.ID] = i
		}
	}
	for _, f := range fb {
		ex := LabeledFinding{Finding: f.Finding, Label: f.Label}
		if i, ok := byID[f.Finding.ID]; ok && f.Finding.ID != "" {
			out[i] = ex
			continue
		}
		if f.Finding.ID != "" {
			byID[f.Finding.ID] = len(out)
		}
		out = append(out, ex)
	}
	return out
}

// stratifiedSplit holds out round(frac*n) examples of each label, at least
// one and never all of them. Both index lists are returned sorted.
func stratifiedSplit(y []finding.Label, frac float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	for _, label := range []finding.Label{finding.LabelTruePositive, finding.LabelFalsePositive} {
		var idx []int
		for i, l := range y {
			if l == label {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			continue
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		k := int(math.Round(frac * float64(len(idx))))
		k = max(1, min(k, len(idx)-1))
		test = append(test, idx[:k]...)
		train = append(train, idx[k:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test
}

func gather(x [][]float64, y []finding.Label, idx []int) ([][]float64, []finding.Label) {
	xs := make([][]float64, len(idx))
	ys := make([]finding.Label, len(idx))
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}
	return xs, ys
}

// evaluate scores st on a held-out set. Zero denominators yield 0.
func evaluate(st *state, x [][]float64, y []finding.Label) (Metrics, error) {
	var tp, fp, fn, correct int
	for i, row := range x {
		ptp, err := st.probTruePositive(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("evaluate: %w", err)
		}
		predFP := 1-ptp > 0.5
		actualFP := y[i] == finding.LabelFalsePositive
		switch {
		case predFP && actualFP:
			tp++
		case predFP && !actualFP:
			fp++
		case !predFP && actualFP:
			fn++
		}
		if predFP == actualFP {
			correct++
		}
	}

	var m Metrics
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if len(y) > 0 {
		m.Accuracy = float64(correct) / float64(len(y))
	}
	return m, nil
}
