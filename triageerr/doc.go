// Package triageerr provides the structured error type used across the
// triage engine.
//
// Every error carries the component and operation that produced it and a
// Kind from a closed taxonomy. Callers branch on the kind rather than on
// message text:
//
//	if triageerr.KindOf(err) == triageerr.KindPersistenceFailure {
//	    // proceed without a model
//	}
//
// Sentinel values (ErrPersistenceFailure, ...) match any error of the same
// kind through errors.Is.
package triageerr
