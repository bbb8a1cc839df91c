package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// ShellBuiltin is a command the shell runs itself rather than in a child.
type ShellBuiltin interface {
	Main(s *Session, args []string) int
}

type ShellBuiltinFunc func(s *Session, args []string) int

func (f ShellBuiltinFunc) Main(s *Session, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinDoc is the help text of a builtin.
type BuiltinDoc struct {
	Usage   string // operands, after the name
	Summary string
}

// BuiltinDocs is keyed like AllBuiltins.
var BuiltinDocs = make(map[string]BuiltinDoc)

// BuiltinError is reported when a builtin fails.
type BuiltinError struct {
	Name string
	Err  error
}

func (e *BuiltinError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *BuiltinError) Unwrap() error {
	return e.Err
}

// parseBuiltinFlags handles the options every builtin understands. It returns
// the operands, or ok set to false and the status the builtin should exit with.
func parseBuiltinFlags(s *Session, args []string) (operands []string, status int, ok bool) {
	doc := BuiltinDocs[args[0]]

	opts := getopt.New()
	opts.SetParameters(doc.Usage)
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	optErr := opts.Getopt(args, nil)
	if optErr != nil || *helpOpt {
		w := s.stdout
		if optErr != nil {
			s.reportErr(&BuiltinError{Name: args[0], Err: optErr})
			w = s.stderr
			status = 2
		}
		fmt.Fprintf(w, "usage: %s %s\n", args[0], doc.Usage)
		fmt.Fprintln(w, doc.Summary)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return nil, status, false
	}

	return opts.Args(), 0, true
}

// Cd is the cd shell builtin
func Cd(s *Session, args []string) int {
	operands, status, ok := parseBuiltinFlags(s, args)
	if !ok {
		return status
	}

	var dir string
	switch len(operands) {
	case 0:
		dir = os.Getenv(EnvHome)
		if dir == "" {
			s.reportErr(&BuiltinError{Name: args[0], Err: errors.New("HOME not set")})
			return 1
		}
	case 1:
		dir = operands[0]
	default:
		s.reportErr(&BuiltinError{Name: args[0], Err: errors.New("too many arguments")})
		return 1
	}

	if err := s.Chdir(dir); err != nil {
		s.reportErr(&BuiltinError{Name: args[0], Err: err})
		return 1
	}
	return 0
}

// Exit quits the shell
func Exit(s *Session, args []string) int {
	if _, status, ok := parseBuiltinFlags(s, args); !ok {
		return status
	}

	s.Quit = true
	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	BuiltinDocs["cd"] = BuiltinDoc{Usage: "[DIR]", Summary: "Change the shell working directory, $HOME by default."}

	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	BuiltinDocs["exit"] = BuiltinDoc{Summary: "Exit the shell."}
}
