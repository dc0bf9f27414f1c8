package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/fnenhance/internal/demo"
	"github.com/psantana5/fnenhance/internal/report"
)

// formatPrometheus prints the metrics exposition instead of the report
const formatPrometheus = "prometheus"

var saveLogPath string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the calculator demonstration",
	Long: `Wraps a four-function calculator with each enhancement in turn, prints
what every call returned, then reports the performance samples and the
enhancement history.

Example:
  fnenhance demo
  fnenhance demo -o json --save-log enhancement_log.json
  fnenhance demo -o prometheus`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&saveLogPath, "save-log", "", "write the enhancement history to this file (.json or .yaml)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	rt, err := newRuntime(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	out := cmd.OutOrStdout()
	if err := demo.Run(cmd.Context(), out, rt.enhancer, demo.Config{MaxRetries: settings.MaxRetries}); err != nil {
		return fmt.Errorf("demonstration failed: %w", err)
	}

	fmt.Fprintln(out)
	if outputFormat == formatPrometheus {
		if err := report.WritePrometheus(out, rt.registry); err != nil {
			return err
		}
	} else {
		rep := report.Build(rt.enhancer.Tracker(), rt.enhancer.Ledger(), time.Now())
		if err := report.Write(out, rep, outputFormat); err != nil {
			return err
		}
	}

	if saveLogPath != "" {
		if err := report.SaveHistory(saveLogPath, rt.enhancer.EnhancementHistory(), time.Now()); err != nil {
			return err
		}
		rt.logger.Info("enhancement history saved", map[string]interface{}{"path": saveLogPath})
	}
	return nil
}
