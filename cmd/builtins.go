package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/josephlewis42/minishell/core"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the commands minishell runs without starting a program.",
	Long: `List the commands minishell runs without starting a program.

Builtins change the shell itself, so pipes, redirections and & on a builtin's
line are ignored. Every builtin accepts --help.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeBuiltins(cmd.OutOrStdout())
	},
}

// writeBuiltins prints one "name usage<TAB>summary" row per builtin.
func writeBuiltins(w io.Writer) error {
	var names []string
	for name := range core.AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, name := range names {
		doc := core.BuiltinDocs[name]
		synopsis := strings.TrimSpace(name + " " + doc.Usage)
		fmt.Fprintf(tw, "%s\t%s\n", synopsis, doc.Summary)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
