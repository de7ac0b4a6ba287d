package finding

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	// SeverityCritical indicates a critical issue such as remote code execution.
	SeverityCritical Severity = "critical"

	// SeverityHigh indicates a high-impact issue.
	SeverityHigh Severity = "high"

	// SeverityMedium indicates a moderate issue.
	SeverityMedium Severity = "medium"

	// SeverityLow indicates a minor issue.
	SeverityLow Severity = "low"

	// SeverityInfo indicates an informational finding.
	SeverityInfo Severity = "info"
)

// reviewBonus maps severity levels to manual-review priority bonuses.
var reviewBonus = map[Severity]int{
	SeverityCritical: 40,
	SeverityHigh:     30,
	SeverityMedium:   20,
	SeverityLow:      10,
	SeverityInfo:     5,
}

// IsValid returns true if the severity level is valid.
func (s Severity) IsValid() bool {
	switch s.normalize() {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}

// ReviewBonus returns the priority bonus for a review queue item.
// Returns 0 for unknown severity levels.
func (s Severity) ReviewBonus() int {
	return reviewBonus[s.normalize()]
}

// IsHighImpact reports whether the severity is high or critical.
func (s Severity) IsHighImpact() bool {
	n := s.normalize()
	return n == SeverityCritical || n == SeverityHigh
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

func (s Severity) normalize() Severity {
	return Severity(strings.ToLower(strings.TrimSpace(string(s))))
}

// UnmarshalText lowercases the decoded value. Unknown levels are kept
// verbatim; they simply carry no review bonus.
func (s *Severity) UnmarshalText(text []byte) error {
	*s = Severity(text).normalize()
	return nil
}

// ParseSeverity parses a string into a Severity value, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s).normalize()
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

// AllSeverities returns all valid severity levels in order from critical to info.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}
