package triage

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/config"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cfg       *config.Config
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	feedback  classifier.FeedbackStore
	artifacts classifier.ArtifactStore
	now       func() time.Time
}

// WithConfig sets the engine configuration. A nil config uses defaults.
func WithConfig(cfg *config.Config) Option {
	return func(c *engineConfig) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger shared by every component.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for per-finding spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets the meter used for decision metrics.
func WithMeter(meter metric.Meter) Option {
	return func(c *engineConfig) {
		c.meter = meter
	}
}

// WithFeedbackStore sets the feedback store, overriding the configured
// backend.
func WithFeedbackStore(s classifier.FeedbackStore) Option {
	return func(c *engineConfig) {
		c.feedback = s
	}
}

// WithArtifactStore sets where SaveModel and LoadModel go when called
// without a path, overriding the configured backend.
func WithArtifactStore(s classifier.ArtifactStore) Option {
	return func(c *engineConfig) {
		c.artifacts = s
	}
}

// WithClock overrides the time source for training, feedback and review
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) {
		c.now = now
	}
}
