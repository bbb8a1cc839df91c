package core

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/josephlewis42/minishell/core/complete"
	"github.com/josephlewis42/minishell/core/config"
	"github.com/josephlewis42/minishell/core/editor"
	"github.com/josephlewis42/minishell/core/logger"
	"github.com/josephlewis42/minishell/core/proc"
	"github.com/josephlewis42/minishell/core/shell"
	"github.com/josephlewis42/minishell/core/tty"
)

var diagnosticPrefix = color.New(color.FgRed, color.Bold)

// Options configure a new Session.
type Options struct {
	Config *config.Configuration

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Events receives the session's event log, nil disables it.
	Events logger.Recorder
	// Log receives operational messages, nil discards them.
	Log *log.Logger

	// Reader overrides the line editor selected in Config.
	Reader editor.LineReader
	// Self overrides the executable re-run for child processes.
	Self string
}

// Session is an interactive shell attached to a set of standard streams.
type Session struct {
	cfg          *config.Configuration
	terminal     *tty.Terminal
	reader       editor.LineReader
	parser       shell.Parser
	orchestrator *proc.Orchestrator
	events       logger.Recorder
	log          *log.Logger
	toClose      listCloser

	stdout io.Writer
	stderr io.Writer

	cwd string

	// exit ends the process after a fatal signal.
	exit func(code int)

	// Set to true to quit the shell
	Quit bool
}

// NewSession prepares the terminal and line editor. The only error that
// leaves the terminal unusable is a *tty.SetupError; the terminal is already
// restored when it's returned.
func NewSession(opts Options) (*Session, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Events == nil {
		opts.Events = logger.NopRecorder{}
	}
	if opts.Log == nil {
		opts.Log = log.New(ioutil.Discard, "", 0)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	orchestrator, err := proc.NewOrchestrator()
	if err != nil {
		return nil, err
	}
	if opts.Self != "" {
		orchestrator.Self = opts.Self
	}
	orchestrator.Stdin = opts.Stdin
	orchestrator.Stdout = opts.Stdout
	orchestrator.Stderr = opts.Stderr
	orchestrator.Events = opts.Events

	s := &Session{
		cfg:          opts.Config,
		parser:       shell.DefaultParser,
		orchestrator: orchestrator,
		events:       opts.Events,
		log:          opts.Log,
		stdout:       opts.Stdout,
		stderr:       opts.Stderr,
		cwd:          cwd,
		exit:         os.Exit,
	}
	orchestrator.Report = s.reportErr

	terminal, err := tty.New(int(opts.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	s.terminal = terminal

	s.reader = opts.Reader
	if s.reader == nil {
		if s.reader, err = s.newLineReader(opts); err != nil {
			s.Close()
			return nil, err
		}
	}
	s.toClose = append(s.toClose, s.reader)

	return s, nil
}

func (s *Session) newLineReader(opts Options) (editor.LineReader, error) {
	engine := complete.NewOsEngine()
	editorCfg := editor.Config{
		Capacity: s.cfg.MaxLineLength,
		Bell:     s.cfg.BellOnOverflow,
		Completer: editor.CompleterFunc(func(token string) (string, error) {
			return engine.Complete(token, s.cwd)
		}),
		OnError: s.reportErr,
	}

	switch s.cfg.LineEditor {
	case config.LineEditorReadline:
		s.log.Println("Using readline line editor")
		return editor.NewReadline(opts.Stdin, opts.Stdout, opts.Stderr, editorCfg)

	default:
		s.log.Println("Using raw line editor")
		if err := s.terminal.MakeNonCanonical(); err != nil {
			return nil, err
		}
		editorCfg.Echo = s.terminal.IsTerminal()
		return editor.New(opts.Stdin, opts.Stdout, editorCfg), nil
	}
}

// Prompt renders the configured prompt for the current directory.
func (s *Session) Prompt() string {
	return FormatPrompt(s.cfg.Prompt, CurrentPromptInfo(s.cwd, s.cfg.ColorPrompt))
}

// Getwd returns the cached working directory.
func (s *Session) Getwd() string {
	return s.cwd
}

// Chdir changes the working directory of the shell and the children it
// starts from now on.
func (s *Session) Chdir(dir string) error {
	if err := os.Chdir(dir); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	s.cwd = cwd
	return nil
}

// Run reads and dispatches lines until exit is run or the input ends. While
// it runs, Ctrl-C doesn't kill the shell and SIGTERM or SIGHUP restore the
// terminal before the process exits.
func (s *Session) Run() error {
	s.record(logger.EventSessionStart, logger.Fields{"cwd": s.cwd})
	defer s.record(logger.EventSessionEnd, nil)

	stop := s.handleSignals()
	defer stop()

	for !s.Quit {
		line, err := s.reader.Readline(s.Prompt())

		switch {
		case errors.Is(err, io.EOF):
			s.Quit = true // Input closed, quit.

		case err != nil:
			s.log.Printf("Error readline: %v", err)
			s.record(logger.EventError, logger.Fields{"kind": "readline", "error": err})
			return err

		default:
			s.Dispatch(line)
		}
	}
	return nil
}

// Close restores the terminal and releases the line editor. It's safe to
// call more than once.
func (s *Session) Close() error {
	var lastErr error
	if s.terminal != nil {
		lastErr = s.terminal.Restore()
	}

	toClose := s.toClose
	s.toClose = nil
	if err := toClose.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// reportErr prints a diagnostic for an error that aborted something the user
// asked for.
func (s *Session) reportErr(err error) {
	fmt.Fprintf(s.stderr, "%s %v\n", diagnosticPrefix.Sprint("minishell:"), err)
}

func (s *Session) record(event string, fields logger.Fields) {
	if err := s.events.Record(event, fields); err != nil {
		s.log.Printf("Couldn't record %s event: %v", event, err)
	}
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
