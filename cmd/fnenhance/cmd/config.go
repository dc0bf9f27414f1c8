package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/fnenhance/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration inspection",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after merging flags, the config file and
FNENHANCE_* environment variables. The API key is never printed.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case report.FormatJSON:
		return report.WriteJSON(out, settings)
	case report.FormatYAML, report.FormatTable:
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "# config file: %s\n", used)
		}
		return report.WriteYAML(out, settings)
	default:
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, outputFormat)
	}
}
