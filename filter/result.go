package filter

import (
	"github.com/zero-day-ai/triage/classifier"
	"github.com/zero-day-ai/triage/rules"
	"github.com/zero-day-ai/triage/scoring"
)

// Decision is the final outcome for a finding.
type Decision string

const (
	DecisionAccept       Decision = "accept"
	DecisionReject       Decision = "reject"
	DecisionManualReview Decision = "manual_review"
	DecisionError        Decision = "error"
)

func (d Decision) String() string { return string(d) }

// Layers holds the per-layer outputs. Fields are nil for layers that did
// not run.
type Layers struct {
	Rule       *rules.Result          `json:"rule_based,omitempty"`
	Features   map[string]float64     `json:"features,omitempty"`
	Prediction *classifier.Prediction `json:"ml_prediction,omitempty"`
	Confidence *scoring.Result        `json:"confidence,omitempty"`
}

// Result is the outcome of filtering one finding.
type Result struct {
	FindingID          string                 `json:"finding_id"`
	OriginalConfidence float64                `json:"original_confidence"`
	Layers             Layers                 `json:"layers"`
	Decision           Decision               `json:"final_decision"`
	FinalConfidence    float64                `json:"final_confidence"`
	Classification     scoring.Classification `json:"classification,omitempty"`
	Factors            []scoring.Factor       `json:"confidence_factors,omitempty"`
	ManualReviewNeeded bool                   `json:"manual_review_needed"`
	Explanation        string                 `json:"explanation,omitempty"`
	Reasons            []string               `json:"reasons"`
	Error              string                 `json:"error,omitempty"`
}

// ChecksFailed returns the number of failed rule checks, or 0 when rule
// validation did not run.
func (r *Result) ChecksFailed() int {
	if r.Layers.Rule == nil {
		return 0
	}
	return len(r.Layers.Rule.ChecksFailed)
}

// Statistics are running counters over all filtered findings.
type Statistics struct {
	TotalFindings     int     `json:"total_findings"`
	PassedFilters     int     `json:"passed_filters"`
	FailedFilters     int     `json:"failed_filters"`
	ManualReview      int     `json:"manual_review"`
	Errors            int     `json:"errors"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// Decide applies the decision policy to a scoring result.
func Decide(r scoring.Result) Decision {
	switch {
	case r.Classification == scoring.Confirmed && r.ConfidenceScore >= scoring.ConfirmedThreshold:
		return DecisionAccept
	case r.Classification == scoring.Rejected || r.ConfidenceScore < scoring.RejectThreshold:
		return DecisionReject
	case r.ManualReviewNeeded || r.Classification == scoring.Uncertain:
		return DecisionManualReview
	case r.Classification == scoring.Likely:
		return DecisionAccept
	default:
		return DecisionManualReview
	}
}
