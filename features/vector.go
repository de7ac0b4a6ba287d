package features

// Feature indices into a Vector.
const (
	PayloadLength = iota
	PayloadEntropy
	SpecialCharCount
	EncodingLayers
	ResponseTime
	ResponseSize
	ResponseCode
	HeaderCount
	ReflectionCount
	ReflectionContext
	ContextBreakSuccess
	ErrorIndicatorCount
	AnomalyScore

	// Count is the number of dimensions in a Vector.
	Count
)

var names = [Count]string{
	"payload_length",
	"payload_entropy",
	"special_char_count",
	"encoding_layers",
	"response_time",
	"response_size",
	"response_code",
	"header_count",
	"reflection_count",
	"reflection_context",
	"context_break_success",
	"error_indicator_count",
	"anomaly_score",
}

// Vector is an ordered feature vector.
type Vector [Count]float64

// Names returns the feature names in vector order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Slice returns the vector as a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, name := range names {
		out[name] = v[i]
	}
	return out
}

// Context is the ordinal of the markup context a payload is reflected into.
type Context int

const (
	ContextNone Context = iota
	ContextHTMLBody
	ContextHTMLAttribute
	ContextJavaScript
	ContextCSS
	ContextURL
)

// String returns the context name.
func (c Context) String() string {
	switch c {
	case ContextHTMLBody:
		return "html_body"
	case ContextHTMLAttribute:
		return "html_attribute"
	case ContextJavaScript:
		return "javascript"
	case ContextCSS:
		return "css"
	case ContextURL:
		return "url"
	default:
		return "none"
	}
}
