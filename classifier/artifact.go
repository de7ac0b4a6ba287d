package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zero-day-ai/triage/features"
)

// Artifact identity. SchemaVersion changes whenever the encoding of any
// model or of the envelope changes incompatibly.
const (
	ArtifactKind  = "triage.classifier"
	SchemaVersion = 1
)

var (
	// ErrIncompatibleArtifact is returned for artifacts with an unknown
	// kind, schema version, model kind or feature ordering.
	ErrIncompatibleArtifact = errors.New("classifier: incompatible model artifact")

	// ErrCorruptArtifact is returned for artifacts that cannot be decoded or
	// whose model parameters are inconsistent.
	ErrCorruptArtifact = errors.New("classifier: corrupt model artifact")
)

// Artifact is the self-describing serialised classifier state.
type Artifact struct {
	Kind                string          `json:"kind"`
	SchemaVersion       int             `json:"schema_version"`
	CreatedAt           time.Time       `json:"created_at"`
	FeatureNames        []string        `json:"feature_names"`
	EnsembleWeights     []float64       `json:"ensemble_weights"`
	ConfidenceThreshold float64         `json:"confidence_threshold"`
	Models              []ModelEnvelope `json:"models"`
}

// ModelEnvelope wraps one sub-model's parameters with its kind.
type ModelEnvelope struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// encodeState serialises a model state.
func encodeState(s *state) ([]byte, error) {
	a := Artifact{
		Kind:                ArtifactKind,
		SchemaVersion:       SchemaVersion,
		CreatedAt:           s.trainedAt.UTC(),
		FeatureNames:        s.featureNames,
		EnsembleWeights:     s.weights,
		ConfidenceThreshold: s.threshold,
	}
	for _, m := range s.models {
		params, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
		}
		a.Models = append(a.Models, ModelEnvelope{Kind: m.Kind(), Params: params})
	}
	return json.MarshalIndent(a, "", "  ")
}

// decodeState parses and validates an artifact. Compatibility is checked
// before any model parameters are decoded.
func decodeState(data []byte) (*state, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if a.Kind != ArtifactKind {
		return nil, fmt.Errorf("%w: kind %q", ErrIncompatibleArtifact, a.Kind)
	}
	if a.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrIncompatibleArtifact, a.SchemaVersion, SchemaVersion)
	}
	if !slices.Equal(a.FeatureNames, features.Names()) {
		return nil, fmt.Errorf("%w: feature ordering %v", ErrIncompatibleArtifact, a.FeatureNames)
	}
	if len(a.Models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrCorruptArtifact)
	}
	if a.ConfidenceThreshold < 0 || a.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("%w: confidence threshold %f", ErrCorruptArtifact, a.ConfidenceThreshold)
	}

	s := &state{
		weights:      a.EnsembleWeights,
		featureNames: a.FeatureNames,
		threshold:    a.ConfidenceThreshold,
		trainedAt:    a.CreatedAt,
	}
	for i, env := range a.Models {
		m, err := newModel(env.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: model %d: %v", ErrIncompatibleArtifact, i, err)
		}
		if err := json.Unmarshal(env.Params, m); err != nil {
			return nil, fmt.Errorf("%w: model %d (%s): %v", ErrCorruptArtifact, i, env.Kind, err)
		}
		if err := m.Validate(features.Count); err != nil {
			return nil, fmt.Errorf("%w: model %d (%s): %v", ErrCorruptArtifact, i, env.Kind, err)
		}
		s.models = append(s.models, m)
	}
	return s, nil
}
