package shell

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the part a stage plays in a pipeline.
type Role int

const (
	// RoleSole is a stage that isn't part of a pipe.
	RoleSole Role = iota
	// RoleWriter is the first stage of a pipe, its stdout feeds the pipe.
	RoleWriter
	// RoleReader is the second stage of a pipe, its stdin drains the pipe.
	RoleReader
)

func (r Role) String() string {
	switch r {
	case RoleSole:
		return "sole"
	case RoleWriter:
		return "writer"
	case RoleReader:
		return "reader"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleSole, RoleWriter, RoleReader} {
		if r.String() == s {
			return r, nil
		}
	}
	return RoleSole, fmt.Errorf("unknown role %q", s)
}

// Command is a parsed input line. It holds at most two stages joined by a pipe.
type Command struct {
	// Argv1 is the argument vector of the first stage, Argv1[0] is the program.
	Argv1 []string `json:"argv1"`
	// Argv2 is the argument vector of the second stage, only set when
	// Pipelining is true.
	Argv2 []string `json:"argv2,omitempty"`

	Pipelining     bool `json:"pipelining,omitempty"`
	Background     bool `json:"background,omitempty"`
	RedirectIn     bool `json:"redirect_in,omitempty"`
	RedirectOut    bool `json:"redirect_out,omitempty"`
	RedirectAppend bool `json:"redirect_append,omitempty"`

	// Infile is read by the writer (or sole) stage when RedirectIn is set.
	Infile string `json:"infile,omitempty"`
	// Outfile is written by the reader (or sole) stage when RedirectOut is set.
	Outfile string `json:"outfile,omitempty"`
}

// Validate checks the invariants that the rest of the shell relies on.
func (c *Command) Validate() error {
	switch {
	case len(c.Argv1) == 0:
		return errors.New("empty command")
	case c.Pipelining && len(c.Argv2) == 0:
		return errors.New("pipe without a second command")
	case c.RedirectIn && c.Infile == "":
		return errors.New("input redirection without a file")
	case c.RedirectOut && c.Outfile == "":
		return errors.New("output redirection without a file")
	}
	return nil
}

// Name returns the program name of the first stage.
func (c *Command) Name() string {
	if len(c.Argv1) == 0 {
		return ""
	}
	return c.Argv1[0]
}

// String renders the command back into shell-like text, useful for logs.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(c.Argv1, " "))
	if c.RedirectIn {
		fmt.Fprintf(&sb, " < %s", c.Infile)
	}
	if c.Pipelining {
		sb.WriteString(" | ")
		sb.WriteString(strings.Join(c.Argv2, " "))
	}
	if c.RedirectOut {
		op := ">"
		if c.RedirectAppend {
			op = ">>"
		}
		fmt.Fprintf(&sb, " %s %s", op, c.Outfile)
	}
	if c.Background {
		sb.WriteString(" &")
	}
	return sb.String()
}

// Stage is one program to run along with the redirections that apply to it.
type Stage struct {
	Argv    []string
	Role    Role
	Infile  string
	Outfile string
	Append  bool
}

// Stages returns the stages of the command in launch order. Input redirection
// is attached to the first stage and output redirection to the last.
func (c *Command) Stages() []Stage {
	first := Stage{Argv: c.Argv1, Role: RoleSole}
	if c.RedirectIn {
		first.Infile = c.Infile
	}

	stages := []Stage{first}
	if c.Pipelining {
		stages[0].Role = RoleWriter
		stages = append(stages, Stage{Argv: c.Argv2, Role: RoleReader})
	}
	last := &stages[len(stages)-1]

	if c.RedirectOut {
		last.Outfile = c.Outfile
		last.Append = c.RedirectAppend
	}

	return stages
}
