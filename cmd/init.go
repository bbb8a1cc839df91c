package cmd

import (
	"log"

	"github.com/josephlewis42/minishell/core/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config.yaml and an empty events.log under --config.",
	Long: `Create the shell's configuration directory.

config.yaml holds the prompt, line editor and line length settings and
events.log receives the session event log when event_log is true. An existing
config.yaml is never overwritten, so init is safe to run again.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := config.Initialize(cfgPath, log.New(cmd.ErrOrStderr(), "", 0))
		if err != nil {
			return err
		}

		cmd.Printf("minishell will use line editor %q with prompt %q\n", configuration.LineEditor, configuration.Prompt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
