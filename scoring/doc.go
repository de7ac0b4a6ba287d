// Package scoring combines rule validation, classifier output and the
// finding's own evidence into one confidence score in [0,1], a
// classification bucket and a manual-review flag.
//
// Scoring is a pure function of its inputs: the same finding and side
// evidence always produce the same Result.
package scoring
