package finding

import (
	"fmt"
	"math"
)

// Finding represents a candidate vulnerability reported by a scanner.
type Finding struct {
	// ID is the scanner-assigned identifier.
	ID string `json:"id" yaml:"id"`

	// VulnerabilityType is the raw class string reported by the scanner
	// (e.g. "xss", "sql_injection", "ssti").
	VulnerabilityType string `json:"vulnerability_type" yaml:"vulnerability_type"`

	// Severity is the scanner's severity estimate.
	Severity Severity `json:"severity" yaml:"severity"`

	// Confidence is the scanner's initial confidence estimate (0.0 to 1.0).
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Payload is the input that triggered the finding.
	Payload string `json:"payload" yaml:"payload"`

	// Request is the raw HTTP request text.
	Request string `json:"request,omitempty" yaml:"request,omitempty"`

	// Response is the raw HTTP response text.
	Response string `json:"response,omitempty" yaml:"response,omitempty"`

	// ResponseTime is the observed response time, in whatever unit the scanner reports.
	ResponseTime float64 `json:"response_time,omitempty" yaml:"response_time,omitempty"`

	// Proof holds free-form side-channel evidence.
	Proof Proof `json:"proof,omitempty" yaml:"proof,omitempty"`

	// Reproducible indicates the effect was observed again on replay.
	Reproducible bool `json:"reproducible,omitempty" yaml:"reproducible,omitempty"`

	// InBaseline indicates the same behavior appears in a clean baseline request.
	InBaseline bool `json:"in_baseline,omitempty" yaml:"in_baseline,omitempty"`

	// ResponseAffected indicates the payload measurably changed the response.
	ResponseAffected bool `json:"response_affected,omitempty" yaml:"response_affected,omitempty"`

	// AnomalyScore is a behavioral anomaly score computed by the scanner.
	AnomalyScore float64 `json:"anomaly_score,omitempty" yaml:"anomaly_score,omitempty"`
}

// Class returns the vulnerability class variant for the finding.
func (f *Finding) Class() Class {
	return ParseClass(f.VulnerabilityType)
}

// Validate checks the numeric fields the engine relies on.
// Missing evidence is not an error; malformed numbers are.
func (f *Finding) Validate() error {
	if math.IsNaN(f.Confidence) || f.Confidence < 0.0 || f.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %f", f.Confidence)
	}
	if math.IsNaN(f.ResponseTime) || math.IsInf(f.ResponseTime, 0) {
		return fmt.Errorf("response time must be finite, got %f", f.ResponseTime)
	}
	if math.IsNaN(f.AnomalyScore) || math.IsInf(f.AnomalyScore, 0) {
		return fmt.Errorf("anomaly score must be finite, got %f", f.AnomalyScore)
	}
	return nil
}

// Label is a ground-truth verdict used for training and feedback.
type Label int

const (
	// LabelTruePositive marks a real vulnerability.
	LabelTruePositive Label = 0

	// LabelFalsePositive marks scanner noise.
	LabelFalsePositive Label = 1
)

// IsValid returns true if the label is a known value.
func (l Label) IsValid() bool {
	return l == LabelTruePositive || l == LabelFalsePositive
}

// String returns "tp" or "fp".
func (l Label) String() string {
	switch l {
	case LabelTruePositive:
		return "tp"
	case LabelFalsePositive:
		return "fp"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ParseLabel accepts "tp", "fp", "true_positive", "false_positive", "0" and "1".
func ParseLabel(s string) (Label, error) {
	switch s {
	case "tp", "true_positive", "0":
		return LabelTruePositive, nil
	case "fp", "false_positive", "1":
		return LabelFalsePositive, nil
	default:
		return 0, fmt.Errorf("invalid label: %s", s)
	}
}

// MarshalText encodes the label as "tp" or "fp".
func (l Label) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("invalid label: %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes any form accepted by ParseLabel.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
