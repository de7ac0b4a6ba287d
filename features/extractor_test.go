package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/triage/finding"
)

func TestExtract_BasicFeatures(t *testing.T) {
	f := &finding.Finding{
		Payload:      "<script>alert(1)</script>",
		Response:     "HTTP/1.1 200 OK\nContent-Type: text/html\n\n<script>alert(1)</script>",
		ResponseTime: 150,
		AnomalyScore: 0.42,
	}

	v := NewExtractor().Extract(f)

	assert.Equal(t, 25.0, v[PayloadLength])
	assert.Equal(t, 150.0, v[ResponseTime])
	assert.Equal(t, 200.0, v[ResponseCode])
	assert.Equal(t, 1.0, v[HeaderCount])
	assert.GreaterOrEqual(t, v[ReflectionCount], 1.0)
	assert.Equal(t, 1.0, v[ContextBreakSuccess])
	assert.Equal(t, 0.42, v[AnomalyScore])
	assert.Equal(t, float64(len(f.Response)), v[ResponseSize])
}

func TestExtract_EmptyFindingYieldsZeroVector(t *testing.T) {
	e := NewExtractor()
	assert.Equal(t, Vector{}, e.Extract(&finding.Finding{}))
	assert.Equal(t, Vector{}, e.Extract(nil))
}

func TestEntropy(t *testing.T) {
	high := Entropy("aB3$xY9@qZ")
	low := Entropy("aaaaaaaaaa")

	assert.Greater(t, high, low)
	assert.Greater(t, high, 2.0)
	assert.Less(t, low, 1.0)
	assert.Less(t, low, 1.0, "single-character payload")
	assert.Equal(t, 0.0, Entropy(""))
	assert.InDelta(t, 1.0, Entropy("abab"), 1e-9)
}

func TestSpecialCharCount(t *testing.T) {
	assert.GreaterOrEqual(t, countSpecialChars("<script>alert(1)</script>"), 5)
	assert.Equal(t, 0, countSpecialChars("plain"))
}

func TestEncodingLayerCount(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		atLeast int
		exact   int
	}{
		{"url encoded", "%3Cscript%3Ealert(1)%3C/script%3E", 1, -1},
		{"url encoded short", "%3Cscript%3E", 1, -1},
		{"html entities", "&lt;script&gt;alert(1)&lt;/script&gt;", 1, -1},
		{"unicode escape", "\\u003cscript\\u003e", 1, -1},
		{"double encoding", "%%3C", 2, -1},
		{"base64 run", "PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg==", 1, -1},
		{"numeric entities twice", "&#60;&#62;", 2, -1},
		{"normal text", "normal text", 0, 0},
		{"empty", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodingLayerCount(tt.payload)
			if tt.exact >= 0 {
				assert.Equal(t, tt.exact, got)
				return
			}
			assert.GreaterOrEqual(t, got, tt.atLeast)
			assert.LessOrEqual(t, got, 5)
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 200, StatusCode("HTTP/1.1 200 OK\r\n"))
	assert.Equal(t, 404, StatusCode("HTTP/2 404\n"))
	assert.Equal(t, 0, StatusCode("<html>no status</html>"))
	assert.Equal(t, 0, StatusCode(""))
}

func TestHeaderLines(t *testing.T) {
	resp := "HTTP/1.1 200 OK\nContent-Type: text/html\nServer: nginx\n\nbody: not a header"
	assert.Equal(t, 2, HeaderLines(resp))
	assert.Equal(t, 0, HeaderLines(""))
}

func TestReflections(t *testing.T) {
	assert.Equal(t, 2, Reflections("abc", "ABC and abc"))
	assert.Equal(t, 0, Reflections("abc", "nothing"))
	assert.Equal(t, 0, Reflections("", "abc"))

	// 12 chars, 9-char windows: exact match plus 4 windows at half a point.
	assert.Equal(t, 3, Reflections("abcdefghijkl", "xxabcdefghijklxx"))

	// Only the leading windows survive truncation.
	assert.Equal(t, 1, Reflections("abcdefghijkl", "abcdefghiZZZ abcdefghijZZ"))
}

func TestDetectContext(t *testing.T) {
	payload := "test123"

	tests := []struct {
		name     string
		response string
		want     Context
	}{
		{"javascript", `<script>var x = "test123";</script>`, ContextJavaScript},
		{"attribute", `<input value="test123">`, ContextHTMLAttribute},
		{"body", `<body>test123</body>`, ContextHTMLBody},
		{"css", `<style>.x{color:test123}</style>`, ContextCSS},
		{"url", `<a href=test123>link</a>`, ContextURL},
		{"case insensitive", `<BODY>TEST123</BODY>`, ContextHTMLBody},
		{"not reflected", `<body>nothing</body>`, ContextNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContext(payload, tt.response))
		})
	}
}

func TestContextBroken(t *testing.T) {
	payload := "<script>alert(1)</script>"
	assert.True(t, ContextBroken(payload, "Result: <script>alert(1)</script>"))
	assert.False(t, ContextBroken(payload, "Result: &lt;script&gt;alert(1)&lt;/script&gt;"))
	assert.True(t, ContextBroken("1' OR '1'='1", "query failed near ' or '1'"))
	assert.False(t, ContextBroken("", "anything"))
}

func TestErrorIndicators(t *testing.T) {
	assert.GreaterOrEqual(t, ErrorIndicators(`MySQL Error: syntax error near "SELECT"`), 2)
	assert.Equal(t, 0, ErrorIndicators("Success: Data retrieved"))
}

func TestExtractBatch(t *testing.T) {
	findings := []*finding.Finding{
		{Payload: "test1", Response: "response1"},
		nil,
		{Payload: "test22", Response: "response2"},
	}

	vectors := NewExtractor().ExtractBatch(findings)

	require.Len(t, vectors, 3)
	assert.Equal(t, 5.0, vectors[0][PayloadLength])
	assert.Equal(t, Vector{}, vectors[1])
	assert.Equal(t, 6.0, vectors[2][PayloadLength])
}

func TestVector_Map(t *testing.T) {
	var v Vector
	v[ReflectionContext] = 3
	m := v.Map()

	assert.Len(t, m, Count)
	assert.Equal(t, 3.0, m["reflection_context"])
	assert.Equal(t, Names()[ReflectionContext], "reflection_context")
	assert.Len(t, v.Slice(), 13)
}
