package proc

import (
	"os"

	"github.com/josephlewis42/minishell/core/shell"
)

// Pipe connects the writer stage of a command to its reader stage.
type Pipe struct {
	R *os.File
	W *os.File
}

// NewPipe allocates a pipe. The descriptors are close-on-exec so children
// only see the end they're explicitly given.
func NewPipe() (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, &ResourceError{Op: "could not create the pipe", Err: err}
	}
	return &Pipe{R: r, W: w}, nil
}

// End returns the end of the pipe used by a stage with the given role.
func (p *Pipe) End(role shell.Role) *os.File {
	if p == nil {
		return nil
	}

	switch role {
	case shell.RoleWriter:
		return p.W
	case shell.RoleReader:
		return p.R
	default:
		return nil
	}
}

// Close closes both ends. It's safe to call more than once and on nil.
func (p *Pipe) Close() error {
	if p == nil {
		return nil
	}

	var lastErr error
	for _, end := range []**os.File{&p.R, &p.W} {
		if *end == nil {
			continue
		}
		if err := (*end).Close(); err != nil {
			lastErr = err
		}
		*end = nil
	}
	return lastErr
}
