package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zero-day-ai/triage"
	"github.com/zero-day-ai/triage/classifier"
)

func newTrainCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "train",
		Short:   "Train the false-positive classifier on labeled findings",
		Example: "fptriage train -i labeled.yaml -o models/fp_classifier.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, v)
		},
	}

	cmd.Flags().StringP("input", "i", "", "Labeled findings file (.json, .yaml, .yml)")
	cmd.Flags().StringP("output", "o", "", "Where to write the model artifact (default: configured path)")
	cmd.Flags().Bool("with-feedback", false, "Merge recorded reviewer feedback into the training set")
	_ = v.BindPFlag("train.input", cmd.Flags().Lookup("input"))
	_ = v.BindPFlag("train.output", cmd.Flags().Lookup("output"))
	_ = v.BindPFlag("train.with-feedback", cmd.Flags().Lookup("with-feedback"))
	return cmd
}

func runTrain(cmd *cobra.Command, v *viper.Viper) error {
	input := v.GetString("train.input")
	if input == "" {
		return errors.New("please provide --input with a labeled findings file")
	}
	set, err := classifier.LoadLabeledSet(input)
	if err != nil {
		return err
	}

	engine, logger, err := newEngine(v, cmd)
	if err != nil {
		return err
	}
	defer triage.CloseWithLog(engine, logger, "triage engine")

	ctx := cmd.Context()
	var metrics classifier.Metrics
	if v.GetBool("train.with-feedback") {
		metrics, err = engine.RetrainWithFeedback(ctx, set.Examples)
	} else {
		metrics, err = engine.Train(set.Examples)
	}
	if err != nil {
		return err
	}
	output := v.GetString("train.output")
	if err := engine.SaveModel(ctx, output); err != nil {
		return err
	}
	if output == "" {
		output = engine.ModelLocation()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s trained on %d findings, evaluated on %d\n",
		successColor("Model trained:"), metrics.TrainingSamples, metrics.TestSamples)
	fmt.Fprintf(out, "  precision=%.3f recall=%.3f f1=%.3f accuracy=%.3f\n",
		metrics.Precision, metrics.Recall, metrics.F1, metrics.Accuracy)
	fmt.Fprintf(out, "%s %s\n", infoColor("Saved to"), output)
	return nil
}
