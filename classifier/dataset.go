package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/triage/finding"
)

// LabeledFinding is one training example.
type LabeledFinding struct {
	Finding finding.Finding `json:"finding" yaml:"finding"`
	Label   finding.Label   `json:"label" yaml:"label"`
}

// LabeledSet is a named collection of training examples as stored on disk.
type LabeledSet struct {
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Version  string           `json:"version,omitempty" yaml:"version,omitempty"`
	Examples []LabeledFinding `json:"examples" yaml:"examples"`
}

// LoadLabeledSet loads a labeled set from a file.
// The format is detected by file extension (.json, .yaml, .yml).
func LoadLabeledSet(path string) (*LabeledSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labeled set: %w", err)
	}

	var set LabeledSet
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse JSON labeled set: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse YAML labeled set: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported labeled set format: %s (supported: .json, .yaml, .yml)", ext)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("labeled set validation failed: %w", err)
	}
	return &set, nil
}

// Validate checks every example's finding and label.
func (s *LabeledSet) Validate() error {
	if len(s.Examples) == 0 {
		return fmt.Errorf("labeled set has no examples")
	}
	for i := range s.Examples {
		ex := &s.Examples[i]
		if err := ex.Finding.Validate(); err != nil {
			return fmt.Errorf("example %d (%s): %w", i, ex.Finding.ID, err)
		}
		if !ex.Label.IsValid() {
			return fmt.Errorf("example %d (%s): invalid label %d", i, ex.Finding.ID, int(ex.Label))
		}
	}
	return nil
}
