package rules

import (
	"regexp"
	"strings"

	"github.com/zero-day-ai/triage/finding"
)

var xssBreakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<img[^>]*>`),
	regexp.MustCompile(`(?i)<svg[^>]*>`),
}

var wafIndicators = []string{
	"blocked by",
	"security policy",
	"forbidden",
	"access denied",
	"cloudflare",
	"incapsula",
	"imperva",
	"akamai",
	"f5",
	"mod_security",
}

// XSSValidator runs gated reflection, context-break, execution, WAF and DOM
// checks. Valid requires at least three passed checks.
type XSSValidator struct{}

// Validate implements Validator.
func (XSSValidator) Validate(f *finding.Finding) *Result {
	r := newResult()

	if !reflected(f.Payload, f.Response) {
		r.fail("payload_not_reflected", -0.5, "Payload not reflected in response")
		return r
	}
	r.pass("payload_reflected", 0.3)

	if breaksContext(f.Response) {
		r.pass("context_break", 0.4)
	} else {
		r.fail("no_context_break", -0.3, "Payload did not break out of context")
	}

	if f.Proof.Bool(finding.ProofExecutionConfirmed) {
		r.pass("browser_execution", 0.9)
	} else {
		r.fail("no_browser_execution", 0, "No browser execution proof")
	}

	if WAFBlocked(f.Response) {
		r.fail("waf_blocked", -0.8, "WAF appears to have blocked the request")
		return r
	}
	r.pass("waf_not_blocking", 0)

	if f.Proof.Bool(finding.ProofDOMVerified) {
		r.pass("dom_verified", 0.2)
	}

	return r.requirePassed(3)
}

func reflected(payload, response string) bool {
	if payload == "" || response == "" {
		return false
	}
	return strings.Contains(strings.ToLower(response), strings.ToLower(payload))
}

func breaksContext(response string) bool {
	for _, re := range xssBreakPatterns {
		if re.MatchString(response) {
			return true
		}
	}
	return false
}

// WAFBlocked reports whether the response carries a known WAF block marker.
func WAFBlocked(response string) bool {
	r := strings.ToLower(response)
	for _, ind := range wafIndicators {
		if strings.Contains(r, ind) {
			return true
		}
	}
	return false
}
