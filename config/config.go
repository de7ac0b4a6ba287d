// Package config loads triage.yaml configuration files.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/scoring"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendEtcd   = "etcd"
)

// Config is a triage.yaml file. Every section is optional; getters return
// defaults for missing sections and zero values.
type Config struct {
	Model     *ModelConfig     `yaml:"model,omitempty"`
	Filter    *FilterConfig    `yaml:"filter,omitempty"`
	Review    *ReviewConfig    `yaml:"review,omitempty"`
	Feedback  *FeedbackConfig  `yaml:"feedback,omitempty"`
	Artifacts *ArtifactsConfig `yaml:"artifacts,omitempty"`
}

// ModelConfig configures the classifier.
type ModelConfig struct {
	// Enabled turns classifier inference on. When false the engine uses a
	// neutral verdict. Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// Path is the model artifact file. Default: models/fp_classifier.json
	Path string `yaml:"path,omitempty"`

	// EnsembleWeights weight the random forest, logistic regression and
	// naive Bayes models. Default: [0.4, 0.4, 0.2]
	EnsembleWeights []float64 `yaml:"ensemble_weights,omitempty"`

	// ConfidenceThreshold is the classifier's false-positive cut-off.
	// Default: 0.80
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`

	// TestFraction is the held-out share of training data. Default: 0.2
	TestFraction float64 `yaml:"test_fraction,omitempty"`

	// Forest overrides random forest parameters. Zero fields keep defaults.
	Forest classifier.ForestParams `yaml:"forest,omitempty"`
}

// IsEnabled reports whether classifier inference is on.
func (m *ModelConfig) IsEnabled() bool {
	return m == nil || m.Enabled == nil || *m.Enabled
}

// GetPath returns the artifact path or the default.
func (m *ModelConfig) GetPath() string {
	if m == nil || m.Path == "" {
		return classifier.DefaultModelPath
	}
	return m.Path
}

// GetEnsembleWeights returns the ensemble weights or the defaults.
func (m *ModelConfig) GetEnsembleWeights() []float64 {
	if m == nil || len(m.EnsembleWeights) == 0 {
		return classifier.DefaultEnsembleWeights()
	}
	return m.EnsembleWeights
}

// GetConfidenceThreshold returns the threshold or the default.
func (m *ModelConfig) GetConfidenceThreshold() float64 {
	if m == nil || m.ConfidenceThreshold == 0 {
		return classifier.DefaultConfidenceThreshold
	}
	return m.ConfidenceThreshold
}

// GetTestFraction returns the held-out fraction or the default.
func (m *ModelConfig) GetTestFraction() float64 {
	if m == nil || m.TestFraction == 0 {
		return classifier.DefaultTestFraction
	}
	return m.TestFraction
}

// GetForestParams returns the forest parameters. Zero fields are filled
// in by the classifier; a zero seed selects the default seed.
func (m *ModelConfig) GetForestParams() classifier.ForestParams {
	if m == nil {
		return classifier.DefaultForestParams()
	}
	p := m.Forest
	if p.Seed == 0 {
		p.Seed = classifier.DefaultForestParams().Seed
	}
	return p
}

// FilterConfig configures the orchestrator.
type FilterConfig struct {
	// Concurrency is the number of findings filtered in parallel by a
	// batch call. Default: 4
	Concurrency int `yaml:"concurrency,omitempty"`
}

// GetConcurrency returns the configured concurrency or the default value.
func (f *FilterConfig) GetConcurrency() int {
	if f == nil || f.Concurrency <= 0 {
		return 4
	}
	return f.Concurrency
}

// ReviewConfig configures manual review routing.
type ReviewConfig struct {
	// AutoEnqueue adds manual_review results to the queue. Default: true
	AutoEnqueue *bool `yaml:"auto_enqueue,omitempty"`

	// Rules are extra CEL predicates that flag a finding for review.
	Rules []RuleConfig `yaml:"rules,omitempty"`

	// UnusualClasses need a score of 0.90 to skip review.
	// Default: deserialization, xxe, ssti
	UnusualClasses []string `yaml:"unusual_classes,omitempty"`
}

// RuleConfig is a named CEL review rule.
type RuleConfig struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// GetAutoEnqueue reports whether review results are queued automatically.
func (r *ReviewConfig) GetAutoEnqueue() bool {
	return r == nil || r.AutoEnqueue == nil || *r.AutoEnqueue
}

// GetUnusualClasses returns the configured classes or the defaults.
func (r *ReviewConfig) GetUnusualClasses() []finding.Class {
	if r == nil || len(r.UnusualClasses) == 0 {
		return scoring.DefaultUnusualClasses()
	}
	out := make([]finding.Class, 0, len(r.UnusualClasses))
	for _, c := range r.UnusualClasses {
		out = append(out, finding.ParseClass(c))
	}
	return out
}

// CompileRules compiles the configured review rules.
func (r *ReviewConfig) CompileRules() ([]*scoring.ReviewRule, error) {
	if r == nil {
		return nil, nil
	}
	out := make([]*scoring.ReviewRule, 0, len(r.Rules))
	for _, rc := range r.Rules {
		rule, err := scoring.CompileReviewRule(rc.Name, rc.Expression)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// FeedbackConfig selects where label corrections are stored.
type FeedbackConfig struct {
	// Backend is "memory" or "redis". Default: memory
	Backend string `yaml:"backend,omitempty"`

	// RedisURL is required for the redis backend.
	RedisURL string `yaml:"redis_url,omitempty"`

	// Key is the Redis list key. Default: triage:feedback
	Key string `yaml:"key,omitempty"`
}

// GetBackend returns the feedback backend or the default.
func (f *FeedbackConfig) GetBackend() string {
	if f == nil || f.Backend == "" {
		return BackendMemory
	}
	return strings.ToLower(f.Backend)
}

// ArtifactsConfig selects where model artifacts are shared.
type ArtifactsConfig struct {
	// Backend is "file" or "etcd". Default: file
	Backend string `yaml:"backend,omitempty"`

	// Etcd is required for the etcd backend.
	Etcd *classifier.EtcdConfig `yaml:"etcd,omitempty"`
}

// GetBackend returns the artifact backend or the default.
func (a *ArtifactsConfig) GetBackend() string {
	if a == nil || a.Backend == "" {
		return BackendFile
	}
	return strings.ToLower(a.Backend)
}

// Validate checks values the defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if m := c.Model; m != nil {
		for i, w := range m.EnsembleWeights {
			if w < 0 || math.IsNaN(w) {
				errs = append(errs, fmt.Errorf("model.ensemble_weights[%d] must be non-negative, got %v", i, w))
			}
		}
		if len(m.EnsembleWeights) > 0 && sum(m.EnsembleWeights) <= 0 {
			errs = append(errs, errors.New("model.ensemble_weights must have a positive sum"))
		}
		if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
			errs = append(errs, fmt.Errorf("model.confidence_threshold must be between 0.0 and 1.0, got %v", m.ConfidenceThreshold))
		}
		if m.TestFraction < 0 || m.TestFraction >= 1 {
			errs = append(errs, fmt.Errorf("model.test_fraction must be in [0, 1), got %v", m.TestFraction))
		}
	}

	if f := c.Filter; f != nil && f.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("filter.concurrency must not be negative, got %d", f.Concurrency))
	}

	if r := c.Review; r != nil {
		for _, s := range r.UnusualClasses {
			if finding.ParseClass(s) == finding.ClassOther && !strings.EqualFold(strings.TrimSpace(s), string(finding.ClassOther)) {
				errs = append(errs, fmt.Errorf("review.unusual_classes: unknown class %q", s))
			}
		}
		if _, err := r.CompileRules(); err != nil {
			errs = append(errs, fmt.Errorf("review.rules: %w", err))
		}
	}

	switch b := c.Feedback.GetBackend(); b {
	case BackendMemory:
	case BackendRedis:
		if c.Feedback.RedisURL == "" {
			errs = append(errs, errors.New("feedback.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("feedback.backend: unknown backend %q", b))
	}

	switch b := c.Artifacts.GetBackend(); b {
	case BackendFile:
	case BackendEtcd:
		if c.Artifacts.Etcd == nil || len(c.Artifacts.Etcd.Endpoints) == 0 {
			errs = append(errs, errors.New("artifacts.etcd.endpoints is required for the etcd backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("artifacts.backend: unknown backend %q", b))
	}

	return errors.Join(errs...)
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Load reads and validates a configuration file. If path is a directory,
// it looks for triage.yaml or triage.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"triage.yaml", "triage.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no triage.yaml or triage.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration from YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
