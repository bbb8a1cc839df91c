package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/minishell/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var reportJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect what past shell sessions ran.",
	Long: `Inspect what past shell sessions ran.

Sessions append to events.log in the config directory while event_log is
enabled in config.yaml.`,
}

var reportCommand = &cobra.Command{
	Use:   "report [EVENTS.LOG]",
	Short: "Summarize programs, builtins, exit statuses and errors.",
	Long: `Summarize programs, builtins, exit statuses and errors.

The log under --config is read unless a file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var in io.ReadCloser
		if len(args) == 1 {
			fd, err := os.Open(args[0])
			if err != nil {
				return err
			}
			in = fd
		} else {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			fd, err := config.ReadEventLog()
			if err != nil {
				return err
			}
			in = fd
		}
		defer in.Close()

		return writeReport(cmd.OutOrStdout(), in, reportJSON)
	},
}

// writeReport summarizes the event log in as YAML, or indented JSON.
func writeReport(w io.Writer, in io.Reader, asJSON bool) error {
	report := logger.NewReport()
	if err := logger.ReadJSONLinesLog(in, report.Update); err != nil {
		return fmt.Errorf("couldn't read event log: %w", err)
	}

	var (
		out []byte
		err error
	)
	if asJSON {
		out, err = json.MarshalIndent(report, "", "  ")
	} else {
		out, err = yaml.Marshal(report)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	reportCommand.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON instead of YAML")
}
