// Package finding defines the scanner finding record consumed by the triage
// engine.
//
// A Finding is produced by an external scanner (XSS/SQLi/SSRF probes,
// fuzzers) and carries the triggering payload, the raw request and response,
// a free-form Proof map of side-channel evidence, and optional behavioral
// flags. The engine never mutates a Finding.
//
// # Vulnerability Classes
//
// Class is a closed set of variants. Each variant maps to one rule validator
// family; classes without a dedicated validator fall into the generic family.
//
// # Severity Levels
//
// Severity is ranked from Critical to Info and contributes a priority bonus
// when a finding is routed to manual review.
//
// # Proof
//
// Proof values arrive from JSON or YAML decoders with loosely typed values.
// The accessors on Proof normalise booleans, numbers and lists so that
// missing or malformed evidence reads as a zero value rather than an error.
package finding
