package editor

import (
	"io"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/minishell/core/complete"
)

// Readline is a LineReader backed by github.com/abiosoft/readline. It manages
// the terminal mode itself and offers cursor movement on top of what Editor
// does.
type Readline struct {
	instance *readline.Instance
}

var _ LineReader = (*Readline)(nil)

type fder interface {
	Fd() uintptr
}

// NewReadline creates a readline based LineReader. If stdin has a file
// descriptor, readline puts that terminal into raw mode while a line is edited.
func NewReadline(stdin io.Reader, stdout, stderr io.Writer, cfg Config) (*Readline, error) {
	rlConfig := &readline.Config{
		Stdin:        readline.NewCancelableStdin(stdin),
		Stdout:       stdout,
		Stderr:       stderr,
		AutoComplete: &autoCompleter{completer: cfg.Completer, onError: cfg.OnError},
		// History is out of scope for the shell.
		HistoryLimit: -1,

		FuncIsTerminal: func() bool { return false },
	}

	if f, ok := stdin.(fder); ok {
		fd := int(f.Fd())
		var saved *readline.State
		rlConfig.FuncIsTerminal = func() bool {
			return readline.IsTerminal(fd)
		}
		rlConfig.FuncMakeRaw = func() (err error) {
			saved, err = readline.MakeRaw(fd)
			return err
		}
		rlConfig.FuncExitRaw = func() error {
			if saved == nil {
				return nil
			}
			defer func() { saved = nil }()
			return readline.Restore(fd, saved)
		}
	}

	if err := rlConfig.Init(); err != nil {
		return nil, err
	}

	instance, err := readline.NewEx(rlConfig)
	if err != nil {
		return nil, err
	}

	return &Readline{instance: instance}, nil
}

// Readline implements LineReader. An interrupt discards the line.
func (r *Readline) Readline(prompt string) (string, error) {
	r.instance.SetPrompt(prompt)
	line, err := r.instance.Readline()
	if err == readline.ErrInterrupt {
		return "", nil
	}
	return line, err
}

// Close implements LineReader.
func (r *Readline) Close() error {
	return r.instance.Close()
}

// autoCompleter adapts a Completer to readline.AutoCompleter.
type autoCompleter struct {
	completer Completer
	onError   func(error)
}

var _ readline.AutoCompleter = (*autoCompleter)(nil)

// Do implements readline.AutoCompleter. Only unique completions are offered.
func (a *autoCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if a.completer == nil {
		return nil, 0
	}

	token := complete.CurrentToken(string(line[:pos]))
	if token == "" {
		return nil, 0
	}

	suffix, err := a.completer.Complete(token)
	if err != nil {
		if a.onError != nil {
			a.onError(err)
		}
		return nil, 0
	}

	if suffix == "" {
		return nil, 0
	}

	return [][]rune{[]rune(suffix)}, len([]rune(token))
}
