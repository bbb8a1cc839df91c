package cmd

import (
	"fmt"
	"os"

	"github.com/josephlewis42/minishell/core/complete"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete TOKEN [DIR]",
	Short: "Print the text tab would add to a partial file name.",
	Long: `Print the text tab would add to a partial file name.

Nothing is printed unless exactly one entry of DIR, the working directory by
default, starts with TOKEN.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := ""
		if len(args) == 2 {
			dir = args[1]
		} else {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}

		suffix, err := complete.NewOsEngine().Complete(args[0], dir)
		if err != nil {
			return err
		}

		if suffix != "" {
			fmt.Fprintln(cmd.OutOrStdout(), suffix)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
