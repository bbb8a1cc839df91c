// Package tty switches the controlling terminal in and out of the
// non-canonical mode used by the line editor.
package tty

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// SetupError is returned when the terminal can't be configured at startup.
// The shell must not start when it sees one.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("terminal setup failed: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Terminal holds the attributes of a terminal captured when the shell started.
type Terminal struct {
	fd     int
	isTerm bool
	saved  *term.State

	restoreOnce sync.Once
	restoreErr  error
}

// New snapshots the attributes of fd. If fd isn't a terminal, the returned
// Terminal does nothing.
func New(fd int) (*Terminal, error) {
	t := &Terminal{fd: fd}
	if !term.IsTerminal(fd) {
		return t, nil
	}

	state, err := term.GetState(fd)
	if err != nil {
		return nil, &SetupError{Err: err}
	}

	t.saved = state
	t.isTerm = true
	return t, nil
}

// IsTerminal reports whether the descriptor is a terminal.
func (t *Terminal) IsTerminal() bool {
	return t.isTerm
}

// Attributes returns the current attributes of the terminal.
func (t *Terminal) Attributes() (*unix.Termios, error) {
	return unix.IoctlGetTermios(t.fd, ioctlReadTermios)
}

// MakeNonCanonical turns off echo and line buffering so every byte is
// delivered as soon as it's typed. The change is read back to make sure it
// took effect; on any failure the original attributes are restored and a
// *SetupError is returned.
func (t *Terminal) MakeNonCanonical() error {
	if !t.isTerm {
		return nil
	}

	termios, err := t.Attributes()
	if err != nil {
		return t.fail(err)
	}

	termios.Lflag &^= unix.ECHO | unix.ICANON
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, ioctlWriteTermios, termios); err != nil {
		return t.fail(err)
	}

	actual, err := t.Attributes()
	if err != nil {
		return t.fail(err)
	}

	if actual.Lflag&(unix.ECHO|unix.ICANON) != 0 || actual.Cc[unix.VMIN] != 1 || actual.Cc[unix.VTIME] != 0 {
		return t.fail(errors.New("terminal did not accept non-canonical mode"))
	}

	return nil
}

func (t *Terminal) fail(err error) error {
	t.Restore()
	return &SetupError{Err: err}
}

// Restore puts back the attributes captured by New. Only the first call has
// any effect.
func (t *Terminal) Restore() error {
	t.restoreOnce.Do(func() {
		if t.saved != nil {
			t.restoreErr = term.Restore(t.fd, t.saved)
		}
	})
	return t.restoreErr
}
