package rules

import "github.com/zero-day-ai/triage/finding"

const ssrfTimingThreshold = 2.0

// SSRFValidator weighs out-of-band callbacks, timing differentials and
// cloud metadata leakage. Valid requires at least one passed check.
type SSRFValidator struct{}

// Validate implements Validator.
func (SSRFValidator) Validate(f *finding.Finding) *Result {
	r := newResult()

	if f.Proof.Bool(finding.ProofCallbackReceived) {
		r.pass("callback_received", 1.0)
		switch f.Proof.Text(finding.ProofCallbackType) {
		case "http":
			r.ConfidenceAdjustment += 0.1
			r.note("HTTP callback received")
		case "dns":
			r.ConfidenceAdjustment += 0.05
			r.note("DNS callback received")
		}
	} else {
		r.fail("no_callback", -0.5, "No OOB callback received")
	}

	if f.Proof.Float(finding.ProofTimingDifference) > ssrfTimingThreshold {
		r.pass("timing_anomaly", 0.6)
	}

	if f.Proof.Bool(finding.ProofMetadataInResponse) {
		r.pass("metadata_found", 1.0)
		r.note("Cloud metadata found in response")
	}

	return r.requirePassed(1)
}
