package finding

import (
	"encoding/json"
	"strconv"
)

// Well-known proof keys.
const (
	ProofExecutionConfirmed  = "execution_confirmed"
	ProofBrowserExecution    = "browser_execution"
	ProofAlertTriggered      = "alert_triggered"
	ProofDOMVerified         = "dom_verified"
	ProofContextBreak        = "context_break_success"
	ProofCallbackReceived    = "callback_received"
	ProofCallbackType        = "callback_type"
	ProofTimingData          = "timing_data"
	ProofTimingDifference    = "timing_difference"
	ProofTechniquesConfirmed = "techniques_confirmed"
	ProofDatabaseVersion     = "database_version"
	ProofDataExtracted       = "data_extracted"
	ProofMetadataInResponse  = "metadata_in_response"
)

// Proof is free-form evidence attached to a finding. Values are whatever a
// JSON or YAML decoder produced; the accessors coerce them and return zero
// values for missing or mistyped entries.
type Proof map[string]any

// Bool returns the value at key interpreted as a boolean. Non-empty strings
// other than "false"/"0", non-zero numbers and non-empty lists are true.
func (p Proof) Bool(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return false
}

// Float returns the value at key as a float64, or 0.
func (p Proof) Float(key string) float64 {
	f, _ := toFloat(p[key])
	return f
}

// Text returns the value at key when it is a string, or "".
func (p Proof) Text(key string) string {
	s, _ := p[key].(string)
	return s
}

// Floats returns the numeric entries of the list at key. Non-numeric entries
// are skipped.
func (p Proof) Floats(key string) []float64 {
	switch t := p[key].(type) {
	case []float64:
		return append([]float64(nil), t...)
	case []any:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			if f, ok := toFloat(item); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}

// Strings returns the string entries of the list at key.
func (p Proof) Strings(key string) []string {
	switch t := p[key].(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
