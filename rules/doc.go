// Package rules implements deterministic, per-vulnerability-class checks
// over a finding's evidence.
//
// Each validator is stateless and produces a checklist of passed and failed
// checks plus a signed confidence adjustment equal to the sum of the weights
// of the checks it evaluated. Missing evidence is a failed check, never an
// error.
package rules
