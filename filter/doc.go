// Package filter runs the triage layers for each finding in a fixed order
// (rule validation, feature extraction, classification, scoring) and turns
// the score into a final decision.
//
// Filter never returns an error to the caller. A layer failure, including a
// panic, becomes a Result with DecisionError, and one bad finding never
// affects the others in a batch.
//
// # Decision Policy
//
// In priority order:
//  1. confirmed with score >= 0.85: accept
//  2. rejected, or score < 0.15: reject
//  3. manual review flagged, or uncertain: manual_review
//  4. likely: accept
//  5. anything else: manual_review
//
// # Observability
//
// Each finding gets a "triage.filter" span. Decisions are counted in
// "triage.decisions" and final scores recorded in "triage.confidence".
package filter
