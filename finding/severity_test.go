package finding

import "testing"

func TestSeverity_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     bool
	}{
		{"critical is valid", SeverityCritical, true},
		{"high is valid", SeverityHigh, true},
		{"uppercase is valid", Severity("HIGH"), true},
		{"info is valid", SeverityInfo, true},
		{"empty is invalid", Severity(""), false},
		{"unknown is invalid", Severity("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.IsValid(); got != tt.want {
				t.Errorf("Severity.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_ReviewBonus(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     int
	}{
		{"critical bonus", SeverityCritical, 40},
		{"high bonus", SeverityHigh, 30},
		{"medium bonus", SeverityMedium, 20},
		{"low bonus", SeverityLow, 10},
		{"info bonus", SeverityInfo, 5},
		{"mixed case", Severity("Critical"), 40},
		{"unknown bonus", Severity("urgent"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.ReviewBonus(); got != tt.want {
				t.Errorf("Severity.ReviewBonus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_IsHighImpact(t *testing.T) {
	if !SeverityCritical.IsHighImpact() || !Severity("High").IsHighImpact() {
		t.Error("critical and high should be high impact")
	}
	if SeverityMedium.IsHighImpact() {
		t.Error("medium should not be high impact")
	}
}

func TestParseSeverity(t *testing.T) {
	got, err := ParseSeverity(" Medium ")
	if err != nil || got != SeverityMedium {
		t.Errorf("ParseSeverity() = %v, %v", got, err)
	}
	if _, err := ParseSeverity("bogus"); err == nil {
		t.Error("ParseSeverity(bogus) expected error")
	}
}
