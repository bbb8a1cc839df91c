package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/josephlewis42/minishell/core"
	"github.com/josephlewis42/minishell/core/config"
	"github.com/josephlewis42/minishell/core/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".minishell"
	}
	return filepath.Join(home, ".minishell")
}

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minishell",
	Short: "A small interactive command shell",
	Long: `A small interactive command shell.

Lines may run one program or two joined by a pipe, redirect input with <,
output with > or >>, and end in & to run in the background. cd and exit are
built in. Press tab to complete file names.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logDest := io.Discard
		if verbose {
			logDest = cmd.ErrOrStderr()
		}
		appLog := log.New(logDest, "minishell: ", 0)

		configuration, err := config.LoadOrDefault(cfgPath, appLog)
		if err != nil {
			return err
		}

		var events logger.Recorder = logger.NopRecorder{}
		if configuration.EventLog {
			fd, err := configuration.OpenEventLog()
			if err != nil {
				return err
			}
			defer fd.Close()
			events = logger.NewJSONLinesLogRecorder(fd).NewSession()
		}

		session, err := core.NewSession(core.Options{
			Config: configuration,
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
			Events: events,
			Log:    appLog,
		})
		if err != nil {
			return err
		}
		defer session.Close()

		return session.Run()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log operational messages to stderr")
}
