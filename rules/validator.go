package rules

import (
	"github.com/zero-day-ai/triage/finding"
)

// Validator checks a finding against class-specific rules.
type Validator interface {
	Validate(f *finding.Finding) *Result
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(f *finding.Finding) *Result

// Validate calls fn(f).
func (fn ValidatorFunc) Validate(f *finding.Finding) *Result {
	return fn(f)
}

// Dispatcher routes a finding to the validator bound to its class family.
// The generic validator is the default arm.
type Dispatcher struct {
	xss     Validator
	sqli    Validator
	ssrf    Validator
	generic Validator
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSignificanceTest replaces the t-test used by the SQL injection
// validator. Passing nil disables it and selects the threshold fallback.
func WithSignificanceTest(test SignificanceTest) Option {
	return func(d *Dispatcher) {
		d.sqli = &SQLiValidator{Test: test}
	}
}

// NewDispatcher returns a Dispatcher with the standard validator set.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		xss:     XSSValidator{},
		sqli:    &SQLiValidator{Test: StudentT{}},
		ssrf:    SSRFValidator{},
		generic: GenericValidator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate runs the validator for the finding's class.
func (d *Dispatcher) Validate(f *finding.Finding) *Result {
	if f == nil {
		return d.generic.Validate(&finding.Finding{})
	}
	return d.For(f.Class().Family()).Validate(f)
}

// For returns the validator bound to a family.
func (d *Dispatcher) For(family finding.Family) Validator {
	switch family {
	case finding.FamilyXSS:
		return d.xss
	case finding.FamilySQLi:
		return d.sqli
	case finding.FamilySSRF:
		return d.ssrf
	default:
		return d.generic
	}
}
