package triage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/config"
	"github.com/zero-day-ai/triage/features"
	"github.com/zero-day-ai/triage/filter"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/health"
	"github.com/zero-day-ai/triage/review"
	"github.com/zero-day-ai/triage/scoring"
)

// Engine wires the filter, classifier and review queue together. It is
// safe for concurrent use.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	classifier *classifier.Classifier
	filter     *filter.Filter
	queue      *review.Queue
	artifacts  classifier.ArtifactStore
	closers    []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// New builds an engine from options. Configured Redis and etcd backends
// are connected here; Close releases them. When the classifier is enabled,
// a persisted model is loaded from the artifact store or model.path.
//
//	engine, err := triage.New(triage.WithConfig(cfg), triage.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
func New(opts ...Option) (*Engine, error) {
	ec := &engineConfig{}
	for _, opt := range opts {
		opt(ec)
	}
	if ec.cfg == nil {
		ec.cfg = &config.Config{}
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
	}
	if err := ec.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := ec.cfg
	e := &Engine{
		cfg:       cfg,
		logger:    ec.logger,
		artifacts: ec.artifacts,
	}

	var err error
	if ec.feedback == nil && cfg.Feedback.GetBackend() == config.BackendRedis {
		store, err := classifier.NewRedisFeedbackStore(classifier.RedisOptions{
			URL:    cfg.Feedback.RedisURL,
			Key:    cfg.Feedback.Key,
			Logger: ec.logger,
		})
		if err != nil {
			return nil, err
		}
		ec.feedback = store
		e.closers = append(e.closers, namedCloser{"redis feedback store", store})
	}
	if e.artifacts == nil && cfg.Artifacts.GetBackend() == config.BackendEtcd {
		store, err := classifier.NewEtcdArtifactStore(*cfg.Artifacts.Etcd)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.artifacts = store
		e.closers = append(e.closers, namedCloser{"etcd artifact store", store})
	}

	copts := []classifier.Option{
		classifier.WithEnsembleWeights(cfg.Model.GetEnsembleWeights()...),
		classifier.WithConfidenceThreshold(cfg.Model.GetConfidenceThreshold()),
		classifier.WithForestParams(cfg.Model.GetForestParams()),
		classifier.WithTestFraction(cfg.Model.GetTestFraction()),
		classifier.WithModelPath(cfg.Model.GetPath()),
		classifier.WithLogger(ec.logger),
	}
	if ec.feedback != nil {
		copts = append(copts, classifier.WithFeedbackStore(ec.feedback))
	}
	if ec.now != nil {
		copts = append(copts, classifier.WithClock(ec.now))
	}
	e.classifier = classifier.New(copts...)

	reviewRules, err := cfg.Review.CompileRules()
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	scorer := scoring.New(
		scoring.WithUnusualClasses(cfg.Review.GetUnusualClasses()...),
		scoring.WithReviewRules(reviewRules...),
		scoring.WithLogger(ec.logger),
	)

	var predictor filter.Predictor = e.classifier
	if !cfg.Model.IsEnabled() {
		predictor = classifier.Neutral{}
	}
	fopts := []filter.Option{
		filter.WithPredictor(predictor),
		filter.WithScorer(scorer),
		filter.WithLogger(ec.logger),
		filter.WithConcurrency(cfg.Filter.GetConcurrency()),
	}
	if ec.tracer != nil {
		fopts = append(fopts, filter.WithTracer(ec.tracer))
	}
	if ec.meter != nil {
		fopts = append(fopts, filter.WithMeter(ec.meter))
	}
	e.filter, err = filter.New(fopts...)
	if err != nil {
		e.Close()
		return nil, err
	}

	qopts := []review.Option{review.WithLogger(ec.logger)}
	if ec.now != nil {
		qopts = append(qopts, review.WithClock(ec.now))
	}
	e.queue = review.New(qopts...)

	// A missing or unreadable artifact leaves the neutral verdict in place.
	if cfg.Model.IsEnabled() {
		e.LoadModel(context.Background(), "")
	}

	return e, nil
}

// FilterFinding filters one finding. Manual review results are queued
// when review.auto_enqueue is on.
func (e *Engine) FilterFinding(ctx context.Context, f *finding.Finding) filter.Result {
	res := e.filter.Filter(ctx, f)
	e.route(f, res)
	return res
}

// FilterBatch filters findings in parallel, preserving input order.
func (e *Engine) FilterBatch(ctx context.Context, findings []*finding.Finding) []filter.Result {
	results := e.filter.FilterBatch(ctx, findings)
	for i, res := range results {
		e.route(findings[i], res)
	}
	return results
}

func (e *Engine) route(f *finding.Finding, res filter.Result) {
	if f == nil || res.Decision != filter.DecisionManualReview || !e.cfg.Review.GetAutoEnqueue() {
		return
	}
	e.queue.Enqueue(f, res)
}

// GetStatistics returns the filter counters.
func (e *Engine) GetStatistics() filter.Statistics {
	return e.filter.Statistics()
}

// ResetStatistics zeroes the filter counters.
func (e *Engine) ResetStatistics() {
	e.filter.ResetStatistics()
}

// AddToQueue queues a finding for review regardless of its decision.
func (e *Engine) AddToQueue(f *finding.Finding, res filter.Result) review.Item {
	return e.queue.Enqueue(f, res)
}

// GetQueue lists queued items. An empty status lists all.
func (e *Engine) GetQueue(status review.Status) []review.Item {
	return e.queue.List(status)
}

// MarkReviewed records a reviewer decision. It reports whether a pending
// item matched.
func (e *Engine) MarkReviewed(id, reviewer string, decision review.Verdict, notes string) bool {
	return e.queue.MarkReviewed(id, reviewer, decision, notes)
}

// QueueStats summarises the review queue.
func (e *Engine) QueueStats() review.Stats {
	return e.queue.Stats()
}

// Train fits a new classifier model and swaps it in.
func (e *Engine) Train(examples []classifier.LabeledFinding) (classifier.Metrics, error) {
	return e.classifier.Train(examples)
}

// RetrainWithFeedback trains on base plus recorded feedback.
func (e *Engine) RetrainWithFeedback(ctx context.Context, base []classifier.LabeledFinding) (classifier.Metrics, error) {
	return e.classifier.RetrainWithFeedback(ctx, base)
}

// AddFeedback records a label correction for later retraining.
func (e *Engine) AddFeedback(ctx context.Context, f finding.Finding, label finding.Label) error {
	return e.classifier.AddFeedback(ctx, f, label)
}

// SaveModel writes the model artifact. An empty path writes to the
// configured artifact store, or the configured model path.
func (e *Engine) SaveModel(ctx context.Context, path string) error {
	if path == "" && e.artifacts != nil {
		return e.classifier.SaveTo(ctx, e.artifacts)
	}
	return e.classifier.SaveModel(ctx, path)
}

// LoadModel loads a model artifact and reports whether it succeeded. On
// failure the engine keeps its current model, or the neutral verdict.
func (e *Engine) LoadModel(ctx context.Context, path string) bool {
	var err error
	if path == "" && e.artifacts != nil {
		err = e.classifier.LoadFrom(ctx, e.artifacts)
	} else {
		err = e.classifier.LoadModel(ctx, path)
	}
	return err == nil
}

// ModelLocation describes where SaveModel and LoadModel go when called
// without a path.
func (e *Engine) ModelLocation() string {
	if e.artifacts != nil {
		return e.artifacts.Location()
	}
	return e.cfg.Model.GetPath()
}

// Health reports whether the engine has a usable model.
func (e *Engine) Health() health.Status {
	info := e.classifier.Info()
	checks := []health.Status{health.ModelCheck(health.ModelInfo{
		Available:    info.Available,
		Models:       info.Models,
		TrainedAt:    info.TrainedAt,
		FeatureCount: features.Count,
	})}
	if !e.cfg.Model.IsEnabled() {
		checks[0] = health.Degraded("classifier disabled by configuration", nil)
	}
	if e.artifacts == nil {
		checks = append(checks, health.ArtifactCheck(e.cfg.Model.GetPath()))
	}
	return health.Combine(checks...)
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *classifier.Classifier {
	return e.classifier
}

// Close releases connections opened by New.
func (e *Engine) Close() error {
	for _, c := range e.closers {
		CloseWithLog(c.closer, e.logger, c.name)
	}
	e.closers = nil
	return nil
}
