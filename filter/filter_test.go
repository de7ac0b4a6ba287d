package filter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/finding"
	"github.com/zero-day-ai/triage/rules"
	"github.com/zero-day-ai/triage/scoring"
	"github.com/zero-day-ai/triage/triageerr"
)

func confirmedXSS() *finding.Finding {
	payload := "<script>alert(1)</script>"
	return &finding.Finding{
		ID:                "f-accept",
		VulnerabilityType: "xss",
		Severity:          finding.SeverityHigh,
		Confidence:        0.7,
		Payload:           payload,
		Response:          "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<html><body>" + payload + "</body></html>",
		ResponseTime:      120,
		Proof: finding.Proof{
			finding.ProofExecutionConfirmed: true,
			finding.ProofContextBreak:       true,
		},
	}
}

func unreflectedProbe() *finding.Finding {
	return &finding.Finding{
		ID:                "f-reject",
		VulnerabilityType: "xss",
		Severity:          finding.SeverityMedium,
		Confidence:        0.3,
		Payload:           "probe123",
		Response:          "HTTP/1.1 200 OK\r\n\r\n<html>nothing here</html>",
		Proof:             finding.Proof{},
	}
}

func newTestFilter(t *testing.T, opts ...Option) (*Filter, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	base := []Option{
		WithTracer(tp.Tracer("test")),
		WithMeter(noop.NewMeterProvider().Meter("test")),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	f, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return f, recorder
}

type fixedPredictor struct {
	pred classifier.Prediction
}

func (p fixedPredictor) Predict(*finding.Finding) classifier.Prediction { return p.pred }

func TestFilter_AcceptsConfirmedFinding(t *testing.T) {
	f, _ := newTestFilter(t)

	res := f.Filter(context.Background(), confirmedXSS())

	assert.Equal(t, DecisionAccept, res.Decision)
	assert.Equal(t, "f-accept", res.FindingID)
	assert.Equal(t, 0.7, res.OriginalConfidence)
	assert.GreaterOrEqual(t, res.FinalConfidence, scoring.ConfirmedThreshold)
	assert.Equal(t, scoring.Confirmed, res.Classification)
	assert.False(t, res.ManualReviewNeeded)
	assert.Empty(t, res.Reasons)
	assert.Empty(t, res.Error)

	require.NotNil(t, res.Layers.Rule)
	assert.True(t, res.Layers.Rule.Valid)
	require.NotNil(t, res.Layers.Prediction)
	assert.False(t, res.Layers.Prediction.Available)
	require.NotNil(t, res.Layers.Confidence)
	assert.Contains(t, res.Layers.Features, "payload_length")
	assert.Contains(t, res.Explanation, "Confidence: 100.00% (confirmed)")
}

func TestFilter_RejectsUnreflectedFinding(t *testing.T) {
	f, _ := newTestFilter(t)

	res := f.Filter(context.Background(), unreflectedProbe())

	assert.NotEqual(t, DecisionAccept, res.Decision)
	assert.Equal(t, DecisionReject, res.Decision)
	assert.Equal(t, scoring.Rejected, res.Classification)
	assert.Contains(t, res.Reasons, "Failed rule-based validation")
	assert.Equal(t, 1, res.ChecksFailed())
}

func TestFilter_LogsDegradedValidation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f, _ := newTestFilter(t, WithLogger(logger))

	f.Filter(context.Background(), unreflectedProbe())

	out := buf.String()
	assert.True(t, strings.Contains(out, "rule validation degraded"), out)
	assert.Contains(t, out, "validation_degraded")
	assert.Contains(t, out, "finding_id=f-reject")
}

func TestFilter_ClassifierFalsePositiveReason(t *testing.T) {
	f, _ := newTestFilter(t, WithPredictor(fixedPredictor{classifier.Prediction{
		IsFalsePositive:          true,
		Confidence:               0.9,
		MLScore:                  0.1,
		FalsePositiveProbability: 0.9,
		Available:                true,
	}}))

	res := f.Filter(context.Background(), unreflectedProbe())

	assert.Contains(t, res.Reasons, "ML classifier marked as false positive")
	assert.Contains(t, res.Reasons, "Failed rule-based validation")
}

func TestFilter_ManualReviewCarriesReasons(t *testing.T) {
	// Reflected but with no context break or execution proof.
	fd := &finding.Finding{
		ID:                "f-review",
		VulnerabilityType: "xss",
		Severity:          finding.SeverityCritical,
		Confidence:        0.5,
		Payload:           "hello",
		Response:          "HTTP/1.1 200 OK\r\n\r\n<p>hello</p>",
	}
	f, _ := newTestFilter(t, WithValidator(rules.ValidatorFunc(func(*finding.Finding) *rules.Result {
		return &rules.Result{Valid: true, ChecksPassed: []string{"payload_reflected"}, ChecksFailed: []string{}}
	})))

	res := f.Filter(context.Background(), fd)

	// 0.5 + 0.3 - 0.3 + 0.2 = 0.7
	assert.InDelta(t, 0.7, res.FinalConfidence, 1e-9)
	assert.Equal(t, scoring.Likely, res.Classification)
	assert.True(t, res.ManualReviewNeeded)
	assert.Equal(t, DecisionManualReview, res.Decision)
	assert.Contains(t, res.Reasons, "critical severity with confidence below 0.85")
}

func TestFilter_InvalidFinding(t *testing.T) {
	f, recorder := newTestFilter(t)

	fd := confirmedXSS()
	fd.Confidence = 1.5
	res := f.Filter(context.Background(), fd)

	assert.Equal(t, DecisionError, res.Decision)
	assert.Contains(t, res.Error, "confidence must be between 0.0 and 1.0")
	assert.Nil(t, res.Layers.Rule)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestFilter_NilFinding(t *testing.T) {
	f, _ := newTestFilter(t)

	res := f.Filter(context.Background(), nil)

	assert.Equal(t, DecisionError, res.Decision)
	assert.Contains(t, res.Error, "nil finding")
}

func TestFilter_RecoversLayerPanic(t *testing.T) {
	f, recorder := newTestFilter(t, WithValidator(rules.ValidatorFunc(func(*finding.Finding) *rules.Result {
		panic("boom")
	})))

	res := f.Filter(context.Background(), confirmedXSS())

	assert.Equal(t, DecisionError, res.Decision)
	assert.Contains(t, res.Error, "boom")
	assert.Contains(t, res.Error, string(triageerr.KindPipelineFailure))
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "Error during filtering")

	stats := f.Statistics()
	assert.Equal(t, 1, stats.TotalFindings)
	assert.Equal(t, 1, stats.Errors)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "triage.filter", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestFilter_SpanAttributes(t *testing.T) {
	f, recorder := newTestFilter(t)

	f.Filter(context.Background(), confirmedXSS())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := make(map[string]string)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "f-accept", attrs["finding.id"])
	assert.Equal(t, "accept", attrs["decision"])
	assert.Equal(t, "confirmed", attrs["classification"])
}

func TestFilterBatch_PreservesOrder(t *testing.T) {
	f, _ := newTestFilter(t, WithConcurrency(3))

	bad := confirmedXSS()
	bad.ID = "f-bad"
	bad.Confidence = -1
	findings := []*finding.Finding{confirmedXSS(), bad, unreflectedProbe()}

	results := f.FilterBatch(context.Background(), findings)

	require.Len(t, results, 3)
	assert.Equal(t, "f-accept", results[0].FindingID)
	assert.Equal(t, DecisionAccept, results[0].Decision)
	assert.Equal(t, "f-bad", results[1].FindingID)
	assert.Equal(t, DecisionError, results[1].Decision)
	assert.Equal(t, "f-reject", results[2].FindingID)
	assert.Equal(t, DecisionReject, results[2].Decision)
}

func TestFilterBatch_Empty(t *testing.T) {
	f, recorder := newTestFilter(t)

	results := f.FilterBatch(context.Background(), nil)

	assert.Empty(t, results)
	assert.Empty(t, recorder.Ended())
}

func TestFilterBatch_Large(t *testing.T) {
	f, _ := newTestFilter(t)

	var findings []*finding.Finding
	for i := range 50 {
		fd := confirmedXSS()
		fd.ID = fmt.Sprintf("f-%d", i)
		findings = append(findings, fd)
	}

	results := f.FilterBatch(context.Background(), findings)

	require.Len(t, results, 50)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("f-%d", i), res.FindingID)
	}
	assert.Equal(t, 50, f.Statistics().TotalFindings)
}

func TestStatistics(t *testing.T) {
	f, _ := newTestFilter(t)

	assert.Equal(t, Statistics{}, f.Statistics())

	ctx := context.Background()
	f.Filter(ctx, confirmedXSS())
	f.Filter(ctx, unreflectedProbe())
	f.Filter(ctx, unreflectedProbe())
	f.Filter(ctx, nil)

	stats := f.Statistics()
	assert.Equal(t, 4, stats.TotalFindings)
	assert.Equal(t, 1, stats.PassedFilters)
	assert.Equal(t, 2, stats.FailedFilters)
	assert.Equal(t, 0, stats.ManualReview)
	assert.Equal(t, 1, stats.Errors)
	assert.InDelta(t, 0.5, stats.FalsePositiveRate, 1e-9)

	f.ResetStatistics()
	assert.Equal(t, Statistics{}, f.Statistics())
}

func TestStatistics_Concurrent(t *testing.T) {
	f, _ := newTestFilter(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				f.Filter(context.Background(), unreflectedProbe())
			}
		}()
	}
	wg.Wait()

	stats := f.Statistics()
	assert.Equal(t, 80, stats.TotalFindings)
	assert.Equal(t, 80, stats.FailedFilters)
	assert.InDelta(t, 1.0, stats.FalsePositiveRate, 1e-9)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		class scoring.Classification
		rev   bool
		want  Decision
	}{
		{"confirmed", 0.9, scoring.Confirmed, false, DecisionAccept},
		{"confirmed with review still accepted", 0.86, scoring.Confirmed, true, DecisionAccept},
		{"rejected", 0.1, scoring.Rejected, false, DecisionReject},
		{"uncertain", 0.6, scoring.Uncertain, false, DecisionManualReview},
		{"likely needing review", 0.75, scoring.Likely, true, DecisionManualReview},
		{"likely", 0.75, scoring.Likely, false, DecisionAccept},
		{"unlikely", 0.4, scoring.Unlikely, false, DecisionManualReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(scoring.Result{ConfidenceScore: tt.score, Classification: tt.class, ManualReviewNeeded: tt.rev})
			assert.Equal(t, tt.want, got)
		})
	}
}
