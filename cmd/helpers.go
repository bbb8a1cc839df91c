package cmd

import (
	"os"

	"github.com/josephlewis42/minishell/core/proc"
	"github.com/spf13/cobra"
)

// The helper commands are how the shell runs its children, see package proc.
// They take their arguments verbatim so flags meant for the child program
// aren't parsed by cobra.

var stageCmd = &cobra.Command{
	Use:                proc.HelperStage,
	Short:              "Set up descriptors and exec a command.",
	Hidden:             true,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(proc.StageMain(args, cmd.ErrOrStderr()))
	},
}

var detachCmd = &cobra.Command{
	Use:                proc.HelperDetach,
	Short:              "Start a command in the background and exit.",
	Hidden:             true,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		self, err := os.Executable()
		if err != nil {
			cmd.PrintErrln("minishell:", err)
			os.Exit(1)
		}
		os.Exit(proc.DetachMain(self, args, cmd.ErrOrStderr()))
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(detachCmd)
}
