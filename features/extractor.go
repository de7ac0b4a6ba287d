package features

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zero-day-ai/triage/finding"
)

const specialChars = "!@#$%^&*()_+-=[]{}|;:'\",.<>?/\\`~"

// errorIndicators are matched case-insensitively against the response body.
var errorIndicators = []string{
	"error", "exception", "warning", "fatal", "syntax",
	"unexpected", "invalid", "denied", "forbidden",
	"stack trace", "traceback", "mysql", "postgresql",
	"oracle", "sql syntax", "sqlite", "odbc",
}

var xssBreaks = []string{
	"<script", "</script>", "javascript:", "onerror=",
	"onload=", "onclick=", "onfocus=", "onmouseover=",
}

var sqlBreaks = []string{
	"' or", "\" or", "' and", "\" and", "' union", "\" union",
	"--", "/*", "*/", "sleep(", "waitfor delay",
}

var (
	urlEncodedRe = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	htmlEntityRe = regexp.MustCompile(`&#?\w+;`)
	base64Re     = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)
	unicodeEscRe = regexp.MustCompile(`\\u[0-9A-Fa-f]{4}`)
	statusLineRe = regexp.MustCompile(`HTTP/\d(?:\.\d)?\s+(\d{3})`)
)

const (
	maxEncodings  = 5
	statusScanLen = 200
	contextWindow = 100
)

// Extractor computes feature vectors. The zero value is ready to use and
// safe for concurrent use.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector for a finding. A nil finding yields
// the zero vector.
func (e *Extractor) Extract(f *finding.Finding) Vector {
	var v Vector
	if f == nil {
		return v
	}

	v[PayloadLength] = float64(utf8.RuneCountInString(f.Payload))
	v[PayloadEntropy] = Entropy(f.Payload)
	v[SpecialCharCount] = float64(countSpecialChars(f.Payload))
	v[EncodingLayers] = float64(EncodingLayerCount(f.Payload))
	v[ResponseTime] = f.ResponseTime
	v[ResponseSize] = float64(utf8.RuneCountInString(f.Response))
	v[ResponseCode] = float64(StatusCode(f.Response))
	v[HeaderCount] = float64(HeaderLines(f.Response))
	v[ReflectionCount] = float64(Reflections(f.Payload, f.Response))
	v[ReflectionContext] = float64(DetectContext(f.Payload, f.Response))
	v[ContextBreakSuccess] = contextBreak(f.Payload, f.Response)
	v[ErrorIndicatorCount] = float64(ErrorIndicators(f.Response))
	v[AnomalyScore] = f.AnomalyScore

	return v
}

// ExtractBatch computes one vector per finding, preserving order.
func (e *Extractor) ExtractBatch(findings []*finding.Finding) []Vector {
	out := make([]Vector, len(findings))
	for i, f := range findings {
		out[i] = e.Extract(f)
	}
	return out
}

// Entropy returns the Shannon entropy, in bits, of the character
// distribution of s.
func Entropy(s string) float64 {
	if s == "" {
		return 0.0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func countSpecialChars(s string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			n++
		}
	}
	return n
}

// EncodingLayerCount counts the distinct encoding schemes visible in a
// payload: percent-encoding, HTML entities, base64-like runs, unicode escapes
// and double encoding.
func EncodingLayerCount(payload string) int {
	if payload == "" {
		return 0
	}

	layers := 0
	if urlEncodedRe.MatchString(payload) {
		layers++
	}
	if htmlEntityRe.MatchString(payload) {
		layers++
	}
	if base64Re.MatchString(payload) {
		layers++
	}
	if unicodeEscRe.MatchString(payload) {
		layers++
	}
	if strings.Contains(payload, "%%") || strings.Contains(strings.Replace(payload, "&#", "", 1), "&#") {
		layers++
	}
	return min(layers, maxEncodings)
}

// StatusCode parses the HTTP status code from the start of a raw response.
// Returns 0 when no status line is found.
func StatusCode(response string) int {
	if response == "" {
		return 0
	}
	head := response
	if utf8.RuneCountInString(head) > statusScanLen {
		head = string([]rune(head)[:statusScanLen])
	}
	m := statusLineRe.FindStringSubmatch(head)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

// HeaderLines counts header lines between the status line and the first
// blank line.
func HeaderLines(response string) int {
	if response == "" {
		return 0
	}
	lines := strings.Split(response, "\n")
	count := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		if strings.Contains(line, ":") {
			count++
		}
	}
	return count
}

// Reflections counts case-insensitive occurrences of payload in response.
// Payloads longer than 10 characters also earn half a point for every
// 80%-length window of the payload found in the response.
func Reflections(payload, response string) int {
	if payload == "" || response == "" {
		return 0
	}
	p := strings.ToLower(payload)
	r := strings.ToLower(response)

	count := float64(strings.Count(r, p))

	runes := []rune(p)
	if len(runes) > 10 {
		window := int(float64(len(runes)) * 0.8)
		for i := 0; i+window <= len(runes); i++ {
			if strings.Contains(r, string(runes[i:i+window])) {
				count += 0.5
			}
		}
	}
	return int(count)
}

// DetectContext inspects the text around the first reflection of payload
// and reports which markup context it landed in.
func DetectContext(payload, response string) Context {
	if payload == "" || response == "" {
		return ContextNone
	}
	p := strings.ToLower(payload)
	r := strings.ToLower(response)

	pos := strings.Index(r, p)
	if pos < 0 {
		return ContextNone
	}

	before := r[max(0, pos-contextWindow):pos]
	end := pos + len(p)
	after := r[end:min(len(r), end+contextWindow)]

	switch {
	case strings.Contains(before, "<script") || strings.Contains(before, "javascript:") || strings.Contains(after, "</script>"):
		return ContextJavaScript
	case strings.Contains(tail(before, 5), `="`) || strings.Contains(tail(before, 5), "='"):
		return ContextHTMLAttribute
	case strings.Contains(before, "<style") || strings.Contains(after, "</style>"):
		return ContextCSS
	case strings.Contains(tail(before, 10), "href=") || strings.Contains(tail(before, 10), "src="):
		return ContextURL
	default:
		return ContextHTMLBody
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ContextBroken reports whether a known XSS or SQL break-out token appears
// in both the payload and the response.
func ContextBroken(payload, response string) bool {
	if payload == "" || response == "" {
		return false
	}
	p := strings.ToLower(payload)
	r := strings.ToLower(response)
	for _, tokens := range [][]string{xssBreaks, sqlBreaks} {
		for _, tok := range tokens {
			if strings.Contains(p, tok) && strings.Contains(r, tok) {
				return true
			}
		}
	}
	return false
}

func contextBreak(payload, response string) float64 {
	if ContextBroken(payload, response) {
		return 1.0
	}
	return 0.0
}

// ErrorIndicators counts distinct error keywords present in the response.
func ErrorIndicators(response string) int {
	if response == "" {
		return 0
	}
	r := strings.ToLower(response)
	count := 0
	for _, ind := range errorIndicators {
		if strings.Contains(r, ind) {
			count++
		}
	}
	return count
}
