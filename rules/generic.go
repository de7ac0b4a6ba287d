package rules

import "github.com/zero-day-ai/triage/finding"

// GenericValidator checks the behavioral flags supplied by the scanner.
// Valid requires at least two passed checks.
type GenericValidator struct{}

// Validate implements Validator.
func (GenericValidator) Validate(f *finding.Finding) *Result {
	r := newResult()

	if f.ResponseAffected {
		r.pass("response_affected", 0.5)
	} else {
		r.fail("response_not_affected", -0.3, "")
	}

	if f.Reproducible {
		r.pass("reproducible", 0.4)
	} else {
		r.fail("not_reproducible", -0.5, "")
	}

	if !f.InBaseline {
		r.pass("not_in_baseline", 0.3)
	} else {
		r.fail("in_baseline", -0.7, "Similar behavior found in baseline")
	}

	return r.requirePassed(2)
}
