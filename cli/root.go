// Package cli implements the fptriage command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zero-day-ai/triage"
	"github.com/zero-day-ai/triage/config"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd builds the fptriage command tree. Flags can also be set from
// FPTRIAGE_* environment variables, e.g. FPTRIAGE_CONFIG.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "fptriage",
		Short:         "False-positive triage for vulnerability scanner findings",
		Long:          "fptriage scores scanner findings, rejects likely false positives and queues uncertain ones for human review.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to triage.yaml (file or directory)")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	v.SetEnvPrefix("FPTRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newFilterCmd(v))
	root.AddCommand(newTrainCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor("error:"), err)
		os.Exit(1)
	}
}

func newLogger(v *viper.Viper, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

func newEngine(v *viper.Viper, cmd *cobra.Command) (*triage.Engine, *slog.Logger, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(v, cmd.ErrOrStderr())
	engine, err := triage.New(triage.WithConfig(cfg), triage.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fptriage version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fptriage %s\n", Version)
		},
	}
}
