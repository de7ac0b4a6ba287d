// Package triage separates real vulnerabilities from scanner noise.
//
// An Engine runs each finding through four layers in a fixed order:
//
//  1. rule validation per vulnerability class (package rules)
//  2. feature extraction from payload and response (package features)
//  3. an ensemble classifier trained on labeled findings (package classifier)
//  4. multi-factor confidence scoring (package scoring)
//
// The filter (package filter) turns the score into accept, reject or
// manual_review. Findings routed to review land in a priority queue
// (package review).
//
// # Quick Start
//
//	engine, err := triage.New(triage.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	res := engine.FilterFinding(ctx, &f)
//	fmt.Println(res.Decision, res.FinalConfidence)
//
// # Degradation
//
// New loads a persisted model when one exists. Without a trained model the
// classifier returns a neutral verdict and scoring proceeds on rules and
// evidence alone. FilterFinding never returns an error: failures surface as
// a result with decision "error".
//
// # Training
//
//	set, err := classifier.LoadLabeledSet("labeled.yaml")
//	metrics, err := engine.Train(set.Examples)
//	err = engine.SaveModel(ctx, "")
//
// Reviewer corrections recorded with AddFeedback are folded in by
// RetrainWithFeedback.
package triage
