package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/rules"
)

// Factor names, in the order they are computed.
const (
	FactorPayloadReflection  = "payload_reflection"
	FactorContextBreak       = "context_break"
	FactorExecutionProof     = "execution_proof"
	FactorMultipleTechniques = "multiple_techniques"
	FactorBehavioralAnomaly  = "behavioral_anomaly"
	FactorMLConfidence       = "ml_confidence"
	FactorOOBCallback        = "oob_callback"
	FactorRuleAdjustment     = "rule_validation_adjustment"
)

// Factor weights.
const (
	reflectedWeight      = 0.3
	notReflectedWeight   = -0.5
	contextBreakWeight   = 0.4
	noContextBreakWeight = -0.3
	executionWeight      = 0.9
	techniquesWeight     = 0.3
	anomalyWeight        = 0.2
	anomalyThreshold     = 0.5
	mlWeight             = 0.4
	neutralMLScore       = 0.5
	callbackWeight       = 0.8

	reviewBelow           = 0.70
	highImpactReviewBelow = 0.85
	unusualReviewBelow    = 0.90
	failedChecksReview    = 3
)

// DefaultUnusualClasses are vulnerability classes that need review below a
// score of 0.90.
func DefaultUnusualClasses() []finding.Class {
	return []finding.Class{finding.ClassDeserialization, finding.ClassXXE, finding.ClassSSTI}
}

// Behavioral is optional side evidence from behavioral analysis.
type Behavioral struct {
	AnomalyScore float64 `json:"anomaly_score"`
}

// Factor is one signed contribution to the score.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Result is the outcome of scoring one finding.
type Result struct {
	ConfidenceScore    float64        `json:"confidence_score"`
	Classification     Classification `json:"classification"`
	ManualReviewNeeded bool           `json:"manual_review_needed"`

	// ReviewReasons explains why ManualReviewNeeded is set.
	ReviewReasons []string `json:"review_reasons,omitempty"`

	// Factors are the signed contributions in computation order. They sum
	// to TotalAdjustment.
	Factors         []Factor `json:"factors"`
	BaseConfidence  float64  `json:"base_confidence"`
	TotalAdjustment float64  `json:"total_adjustment"`
}

// Factor returns the named contribution and whether it was computed.
func (r *Result) Factor(name string) (float64, bool) {
	for _, f := range r.Factors {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// FactorMap returns the contributions keyed by name.
func (r *Result) FactorMap() map[string]float64 {
	m := make(map[string]float64, len(r.Factors))
	for _, f := range r.Factors {
		m[f.Name] = f.Value
	}
	return m
}

// Scorer computes confidence results.
type Scorer struct {
	unusual map[finding.Class]bool
	rules   []*ReviewRule
	logger  *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithUnusualClasses replaces the set of classes reviewed below 0.90.
func WithUnusualClasses(classes ...finding.Class) Option {
	return func(s *Scorer) {
		s.unusual = make(map[finding.Class]bool, len(classes))
		for _, c := range classes {
			s.unusual[c] = true
		}
	}
}

// WithReviewRules adds CEL review predicates.
func WithReviewRules(rules ...*ReviewRule) Option {
	return func(s *Scorer) {
		s.rules = append(s.rules, rules...)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = l
	}
}

// New returns a scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	WithUnusualClasses(DefaultUnusualClasses()...)(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Score combines the evidence for f. rule, pred and behavioral may be nil;
// a nil pred counts as the neutral ML score and a nil rule contributes no
// adjustment.
func (s *Scorer) Score(f *finding.Finding, rule *rules.Result, pred *classifier.Prediction, behavioral *Behavioral) Result {
	if f == nil {
		f = &finding.Finding{}
	}

	factors := []Factor{
		{FactorPayloadReflection, scoreReflection(f)},
		{FactorContextBreak, scoreContextBreak(f)},
		{FactorExecutionProof, scoreExecution(f)},
		{FactorMultipleTechniques, scoreTechniques(f)},
		{FactorBehavioralAnomaly, scoreAnomaly(f, behavioral)},
		{FactorMLConfidence, scoreML(pred) * mlWeight},
		{FactorOOBCallback, scoreCallback(f)},
	}
	if rule != nil {
		factors = append(factors, Factor{FactorRuleAdjustment, rule.ConfidenceAdjustment})
	}

	total := 0.0
	for _, fc := range factors {
		total += fc.Value
	}
	base := f.Confidence
	score := math.Max(0, math.Min(1, base+total))
	if math.IsNaN(score) {
		score = 0
	}

	r := Result{
		ConfidenceScore: score,
		Classification:  Classify(score),
		Factors:         factors,
		BaseConfidence:  base,
		TotalAdjustment: total,
	}
	r.ReviewReasons = s.reviewReasons(f, rule, pred, score)
	r.ManualReviewNeeded = len(r.ReviewReasons) > 0

	s.logger.Debug("confidence calculated",
		"finding_id", f.ID,
		"confidence", score,
		"classification", r.Classification)
	return r
}

func (s *Scorer) reviewReasons(f *finding.Finding, rule *rules.Result, pred *classifier.Prediction, score float64) []string {
	var reasons []string
	if score < reviewBelow {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below %.2f", score, reviewBelow))
	}
	if f.Severity.IsHighImpact() && score < highImpactReviewBelow {
		reasons = append(reasons, fmt.Sprintf("%s severity with confidence below %.2f", strings.ToLower(string(f.Severity)), highImpactReviewBelow))
	}
	failed, passed := 0, 0
	if rule != nil {
		failed, passed = len(rule.ChecksFailed), len(rule.ChecksPassed)
	}
	if failed >= failedChecksReview {
		reasons = append(reasons, fmt.Sprintf("%d rule checks failed", failed))
	}
	class := f.Class()
	if s.unusual[class] && score < unusualReviewBelow {
		reasons = append(reasons, fmt.Sprintf("unusual class %s with confidence below %.2f", class, unusualReviewBelow))
	}

	if len(s.rules) > 0 {
		vars := map[string]any{
			"confidence":    score,
			"severity":      strings.ToLower(string(f.Severity)),
			"vuln_type":     string(class),
			"checks_passed": int64(passed),
			"checks_failed": int64(failed),
			"ml_score":      scoreML(pred),
		}
		for _, rr := range s.rules {
			hit, err := rr.Eval(vars)
			if err != nil {
				s.logger.Warn("review rule failed", "rule", rr.Name, "finding_id", f.ID, "error", err)
				continue
			}
			if hit {
				reasons = append(reasons, "review rule "+rr.Name)
			}
		}
	}
	return reasons
}

func scoreReflection(f *finding.Finding) float64 {
	if f.Payload == "" || f.Response == "" {
		return notReflectedWeight
	}
	if strings.Contains(strings.ToLower(f.Response), strings.ToLower(f.Payload)) {
		return reflectedWeight
	}
	return notReflectedWeight
}

func scoreContextBreak(f *finding.Finding) float64 {
	if f.Proof.Bool(finding.ProofContextBreak) {
		return contextBreakWeight
	}
	return noContextBreakWeight
}

func scoreExecution(f *finding.Finding) float64 {
	if f.Proof.Bool(finding.ProofExecutionConfirmed) ||
		f.Proof.Bool(finding.ProofBrowserExecution) ||
		f.Proof.Bool(finding.ProofAlertTriggered) {
		return executionWeight
	}
	return 0
}

func scoreTechniques(f *finding.Finding) float64 {
	if len(f.Proof.Strings(finding.ProofTechniquesConfirmed)) >= 2 {
		return techniquesWeight
	}
	return 0
}

func scoreAnomaly(f *finding.Finding, b *Behavioral) float64 {
	if b != nil && b.AnomalyScore > anomalyThreshold {
		return anomalyWeight
	}
	if f.AnomalyScore > anomalyThreshold {
		return anomalyWeight
	}
	return 0
}

func scoreML(pred *classifier.Prediction) float64 {
	if pred == nil {
		return neutralMLScore
	}
	return pred.MLScore
}

func scoreCallback(f *finding.Finding) float64 {
	if f.Proof.Bool(finding.ProofCallbackReceived) {
		return callbackWeight
	}
	return 0
}

// Explain renders a result for a human reviewer: score, bucket, every
// non-zero factor with its sign, and a review marker when applicable.
func Explain(r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confidence: %.2f%% (%s)\n\n", r.ConfidenceScore*100, r.Classification)
	b.WriteString("Contributing factors:\n")
	for _, f := range r.Factors {
		if f.Value != 0 {
			fmt.Fprintf(&b, "  - %s: %+.2f\n", f.Name, f.Value)
		}
	}
	if r.ManualReviewNeeded {
		b.WriteString("\nManual review recommended")
		for _, reason := range r.ReviewReasons {
			fmt.Fprintf(&b, "\n  - %s", reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
