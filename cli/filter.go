package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zero-day-ai/triage"
	"github.com/zero-day-ai/triage/filter"
	"github.com/zero-day-ai/triage/finding"
)

func newFilterCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filter",
		Short:   "Filter a file of scanner findings",
		Example: "fptriage filter -i findings.yaml --model models/fp_classifier.json --explain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, v)
		},
	}

	cmd.Flags().StringP("input", "i", "", "Findings file (.json, .yaml, .yml)")
	cmd.Flags().String("model", "", "Model artifact path (overrides config)")
	cmd.Flags().Bool("explain", false, "Print the confidence explanation for each finding")
	cmd.Flags().Bool("json", false, "Print results as JSON")
	_ = v.BindPFlag("filter.input", cmd.Flags().Lookup("input"))
	_ = v.BindPFlag("filter.model", cmd.Flags().Lookup("model"))
	_ = v.BindPFlag("filter.explain", cmd.Flags().Lookup("explain"))
	_ = v.BindPFlag("filter.json", cmd.Flags().Lookup("json"))
	return cmd
}

func runFilter(cmd *cobra.Command, v *viper.Viper) error {
	input := v.GetString("filter.input")
	if input == "" {
		return errors.New("please provide --input with a findings file")
	}
	findings, err := finding.LoadFile(input)
	if err != nil {
		return err
	}

	engine, logger, err := newEngine(v, cmd)
	if err != nil {
		return err
	}
	defer triage.CloseWithLog(engine, logger, "triage engine")

	ctx := cmd.Context()
	if model := v.GetString("filter.model"); model != "" {
		engine.LoadModel(ctx, model)
	}
	if !engine.Classifier().Available() {
		logger.Info("no classifier model loaded, using neutral verdicts")
	}

	ptrs := make([]*finding.Finding, len(findings))
	for i := range findings {
		ptrs[i] = &findings[i]
	}
	results := engine.FilterBatch(ctx, ptrs)

	out := cmd.OutOrStdout()
	if v.GetBool("filter.json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results    []filter.Result   `json:"results"`
			Statistics filter.Statistics `json:"statistics"`
		}{results, engine.GetStatistics()})
	}

	for _, res := range results {
		printResult(out, res, v.GetBool("filter.explain"))
	}
	printSummary(out, engine)
	return nil
}

func printResult(w io.Writer, res filter.Result, explain bool) {
	color := decisionColor(res.Decision)
	if res.Decision == filter.DecisionError {
		fmt.Fprintf(w, "%s %s: %s\n", color("[error]"), res.FindingID, res.Error)
		return
	}
	fmt.Fprintf(w, "%s %s  confidence=%.2f (%s)\n",
		color("["+string(res.Decision)+"]"), res.FindingID, res.FinalConfidence, res.Classification)
	for _, r := range res.Reasons {
		fmt.Fprintf(w, "    - %s\n", r)
	}
	if explain {
		fmt.Fprintln(w, res.Explanation)
	}
}

func printSummary(w io.Writer, engine *triage.Engine) {
	s := engine.GetStatistics()
	q := engine.QueueStats()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d findings: %s accepted, %s rejected, %s for review, %s errors\n",
		infoColor("Summary:"),
		s.TotalFindings,
		successColor(s.PassedFilters),
		errorColor(s.FailedFilters),
		warningColor(s.ManualReview),
		alertColor(s.Errors))
	fmt.Fprintf(w, "False positive rate: %.1f%%\n", s.FalsePositiveRate*100)
	if q.Pending > 0 {
		fmt.Fprintf(w, "Review queue: %d pending\n", q.Pending)
	}
}
