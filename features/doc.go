// Package features derives a fixed-length numeric feature vector from a
// finding's payload, request and response text.
//
// Extraction is a pure function of its input: missing fields produce zero
// or neutral values and no feature ever fails.
package features
