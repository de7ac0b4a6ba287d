package rules

import (
	"fmt"
	"slices"

	"github.com/zero-day-ai/triage/finding"
)

const (
	sqliDelayThreshold = 5.0
	sqliBaselineMean   = 0.5
	sqliMinMean        = 2.0
	sqliMinSamples     = 3
	sqliAlpha          = 0.05
)

// SQLiValidator scores timing, technique and extraction evidence.
// Valid requires at least two passed checks; no single check is fatal.
type SQLiValidator struct {
	// Test is the significance test applied to timing samples. When nil,
	// the validator requires every sample to exceed twice the baseline.
	Test SignificanceTest
}

// Validate implements Validator.
func (v *SQLiValidator) Validate(f *finding.Finding) *Result {
	r := newResult()

	timings := f.Proof.Floats(finding.ProofTimingData)
	techniques := f.Proof.Strings(finding.ProofTechniquesConfirmed)

	if len(timings) > 0 {
		avg := mean(timings)
		if avg >= sqliDelayThreshold {
			r.pass("timing_threshold", 0.4)
			if v.statisticallySignificant(timings) {
				r.pass("statistical_confidence", 0.3)
			} else {
				r.fail("low_statistical_confidence", 0, "Timing variance too high for confidence")
			}
		} else {
			r.fail("timing_below_threshold", 0, fmt.Sprintf("Average delay %.2fs < %.0fs threshold", avg, sqliDelayThreshold))
		}
	}

	if distinct(techniques) >= 2 {
		r.pass("multiple_techniques", 0.3)
	} else {
		r.fail("single_technique_only", 0, "Only one SQLi technique confirmed")
	}

	if slices.Contains(techniques, "error_based") {
		r.pass("error_based_confirmed", 0.4)
	}

	if f.Proof.Bool(finding.ProofDatabaseVersion) || f.Proof.Bool(finding.ProofDataExtracted) {
		r.pass("data_extraction", 0.5)
	}

	return r.requirePassed(2)
}

func (v *SQLiValidator) statisticallySignificant(timings []float64) bool {
	if len(timings) < sqliMinSamples {
		return false
	}
	m := mean(timings)
	if m < sqliMinMean {
		return false
	}

	if v.Test != nil {
		if p, ok := v.Test.PValue(timings, sqliBaselineMean); ok {
			return p < sqliAlpha && m > sqliBaselineMean
		}
	}

	for _, t := range timings {
		if t <= sqliBaselineMean*2 {
			return false
		}
	}
	return true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func distinct(xs []string) int {
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
