package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/features"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/rules"
	"github.com/zero-day-ai/triage/scoring"
	"github.com/zero-day-ai/triage/triageerr"
)

const instrumentationName = "github.com/zero-day-ai/triage/filter"

// DefaultConcurrency is the number of findings FilterBatch processes in
// parallel.
const DefaultConcurrency = 4

// Validator runs rule validation.
type Validator interface {
	Validate(f *finding.Finding) *rules.Result
}

// Extractor derives the feature vector.
type Extractor interface {
	Extract(f *finding.Finding) features.Vector
}

// Predictor runs the statistical classifier.
type Predictor interface {
	Predict(f *finding.Finding) classifier.Prediction
}

// Scorer combines layer outputs into a confidence result.
type Scorer interface {
	Score(f *finding.Finding, rule *rules.Result, pred *classifier.Prediction, behavioral *scoring.Behavioral) scoring.Result
}

// Filter is the triage orchestrator. It is safe for concurrent use.
type Filter struct {
	validator   Validator
	extractor   Extractor
	predictor   Predictor
	scorer      Scorer
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	concurrency int

	decisions  metric.Int64Counter
	confidence metric.Float64Histogram

	mu    sync.Mutex
	stats Statistics
}

// Option configures a Filter.
type Option func(*Filter)

// WithValidator replaces the rule validation layer.
func WithValidator(v Validator) Option {
	return func(f *Filter) { f.validator = v }
}

// WithExtractor replaces the feature extraction layer.
func WithExtractor(e Extractor) Option {
	return func(f *Filter) { f.extractor = e }
}

// WithPredictor sets the classifier. Defaults to classifier.Neutral.
func WithPredictor(p Predictor) Option {
	return func(f *Filter) { f.predictor = p }
}

// WithScorer replaces the scoring layer.
func WithScorer(s Scorer) Option {
	return func(f *Filter) { f.scorer = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) { f.logger = l }
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(f *Filter) { f.tracer = t }
}

// WithMeter sets the meter. Defaults to the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(f *Filter) { f.meter = m }
}

// WithConcurrency sets the FilterBatch parallelism. Values below 1 select
// DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(f *Filter) { f.concurrency = n }
}

// New returns a Filter. Unset layers get their package defaults.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	if f.validator == nil {
		f.validator = rules.NewDispatcher()
	}
	if f.extractor == nil {
		f.extractor = features.NewExtractor()
	}
	if f.predictor == nil {
		f.predictor = classifier.Neutral{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.scorer == nil {
		f.scorer = scoring.New(scoring.WithLogger(f.logger))
	}
	f.logger = f.logger.With("component", "filter")
	if f.tracer == nil {
		f.tracer = otel.Tracer(instrumentationName)
	}
	if f.meter == nil {
		f.meter = otel.Meter(instrumentationName)
	}
	if f.concurrency < 1 {
		f.concurrency = DefaultConcurrency
	}

	var err error
	f.decisions, err = f.meter.Int64Counter(
		"triage.decisions",
		metric.WithDescription("Number of filtered findings by final decision"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create decisions counter: %w", err)
	}
	f.confidence, err = f.meter.Float64Histogram(
		"triage.confidence",
		metric.WithDescription("Final confidence score from 0.0 to 1.0"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create confidence histogram: %w", err)
	}
	return f, nil
}

// Filter runs every layer for one finding. It always returns a result; any
// failure is reported as DecisionError.
func (f *Filter) Filter(ctx context.Context, fd *finding.Finding) (res Result) {
	ctx, span := f.tracer.Start(ctx, "triage.filter")
	defer span.End()

	res = Result{Reasons: []string{}}
	if fd != nil {
		res.FindingID = fd.ID
		res.OriginalConfidence = fd.Confidence
	}
	span.SetAttributes(attribute.String("finding.id", res.FindingID))

	defer func() {
		if r := recover(); r != nil {
			res = failed(res, triageerr.New("filter", "filter", triageerr.KindPipelineFailure, "layer panicked").
				WithCause(fmt.Errorf("%v", r)))
		}
		f.record(ctx, span, res)
	}()

	if err := f.run(fd, &res); err != nil {
		return failed(res, err)
	}
	return res
}

func (f *Filter) run(fd *finding.Finding, res *Result) error {
	if fd == nil {
		return triageerr.New("filter", "filter", triageerr.KindPipelineFailure, "nil finding")
	}
	if err := fd.Validate(); err != nil {
		return triageerr.New("filter", "filter", triageerr.KindPipelineFailure, "invalid finding").WithCause(err)
	}

	rule := f.validator.Validate(fd)
	if rule == nil {
		return triageerr.New("filter", "validate", triageerr.KindPipelineFailure, "validator returned no result")
	}
	res.Layers.Rule = rule
	if !rule.Valid {
		res.Reasons = append(res.Reasons, "Failed rule-based validation")
		err := triageerr.New("filter", "validate", triageerr.KindValidationDegraded, "failed rule-based validation").
			WithDetails(map[string]any{"checks_failed": rule.ChecksFailed})
		f.logger.Debug("rule validation degraded", "finding_id", fd.ID, "error", err)
	}

	res.Layers.Features = f.extractor.Extract(fd).Map()

	pred := f.predictor.Predict(fd)
	res.Layers.Prediction = &pred
	if !pred.Available {
		f.logger.Debug("classifier returned neutral verdict", "finding_id", fd.ID, "note", pred.Note)
	}
	if pred.IsFalsePositive {
		res.Reasons = append(res.Reasons, "ML classifier marked as false positive")
		f.logger.Debug("classifier marked as false positive", "finding_id", fd.ID, "fp_probability", pred.FalsePositiveProbability)
	}

	score := f.scorer.Score(fd, rule, &pred, nil)
	res.Layers.Confidence = &score
	res.FinalConfidence = score.ConfidenceScore
	res.Classification = score.Classification
	res.Factors = score.Factors
	res.ManualReviewNeeded = score.ManualReviewNeeded
	res.Decision = Decide(score)
	res.Explanation = scoring.Explain(score)
	if res.Decision == DecisionManualReview {
		res.Reasons = append(res.Reasons, score.ReviewReasons...)
	}
	return nil
}

func failed(res Result, err error) Result {
	res.Decision = DecisionError
	res.Error = err.Error()
	res.Reasons = append(res.Reasons, "Error during filtering: "+err.Error())
	return res
}

// record updates statistics, metrics and the span for a finished result.
func (f *Filter) record(ctx context.Context, span trace.Span, res Result) {
	f.mu.Lock()
	f.stats.TotalFindings++
	switch res.Decision {
	case DecisionAccept:
		f.stats.PassedFilters++
	case DecisionReject:
		f.stats.FailedFilters++
	case DecisionManualReview:
		f.stats.ManualReview++
	case DecisionError:
		f.stats.Errors++
	}
	f.mu.Unlock()

	attrs := attribute.String("decision", string(res.Decision))
	f.decisions.Add(ctx, 1, metric.WithAttributes(attrs))
	span.SetAttributes(attrs)

	if res.Decision == DecisionError {
		span.RecordError(errors.New(res.Error))
		span.SetStatus(codes.Error, res.Error)
		f.logger.Error("error filtering finding", "finding_id", res.FindingID, "error", res.Error)
		return
	}

	f.confidence.Record(ctx, res.FinalConfidence, metric.WithAttributes(
		attribute.String("classification", string(res.Classification)),
	))
	span.SetAttributes(
		attribute.Float64("confidence", res.FinalConfidence),
		attribute.String("classification", string(res.Classification)),
		attribute.Bool("manual_review_needed", res.ManualReviewNeeded),
	)
	span.SetStatus(codes.Ok, "")
	f.logger.Info("finding filtered",
		"finding_id", res.FindingID,
		"decision", res.Decision,
		"confidence", res.FinalConfidence)
}

// FilterBatch filters findings in parallel. The result slice has one entry
// per input, in input order.
func (f *Filter) FilterBatch(ctx context.Context, findings []*finding.Finding) []Result {
	results := make([]Result, len(findings))
	if len(findings) == 0 {
		return results
	}

	ctx, span := f.tracer.Start(ctx, "triage.filter_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(findings))))
	defer span.End()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(f.concurrency, len(findings)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = f.Filter(ctx, findings[i])
			}
		}()
	}
	for i := range findings {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Statistics returns a snapshot of the running counters.
// FalsePositiveRate is rejected findings over all findings.
func (f *Filter) Statistics() Statistics {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats
	if s.TotalFindings > 0 {
		s.FalsePositiveRate = float64(s.FailedFilters) / float64(s.TotalFindings)
	}
	return s
}

// ResetStatistics zeroes the counters.
func (f *Filter) ResetStatistics() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = Statistics{}
}
