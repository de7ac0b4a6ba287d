package cli

import (
	"github.com/fatih/color"

	"github.com/zero-day-ai/triage/filter"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func decisionColor(d filter.Decision) func(a ...any) string {
	switch d {
	case filter.DecisionAccept:
		return successColor
	case filter.DecisionReject:
		return errorColor
	case filter.DecisionManualReview:
		return warningColor
	default:
		return alertColor
	}
}
