// Package proc launches commands as child processes.
//
// Go can't fork without exec, so every child is a copy of the shell's own
// executable started in a helper role (see HelperStage and HelperDetach). The
// helper does the work that would happen between fork and exec in a C shell
// then replaces itself with the program being run.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/josephlewis42/minishell/core/logger"
	"github.com/josephlewis42/minishell/core/shell"
)

// Handle is a started child process.
type Handle struct {
	Stage int
	Role  shell.Role
	Argv  []string

	cmd *exec.Cmd
}

// Pid returns the process ID of the child.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Wait blocks until the child exits and returns its exit status.
func (h *Handle) Wait() (int, error) {
	err := h.cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

// Reaped describes a child the shell waited on.
type Reaped struct {
	Stage  int
	Role   shell.Role
	Pid    int
	Status int
	// Detached is set for the intermediate of a background launch, its
	// status says whether the worker was started, not how it finished.
	Detached bool
}

// Orchestrator runs commands in the foreground or background.
type Orchestrator struct {
	// Self is the executable started for helper roles, normally the shell
	// itself.
	Self string

	// Standard streams passed to children. They're files so exec.Cmd hands
	// the descriptors over directly instead of copying through goroutines.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Dir is the working directory of children, empty means the shell's.
	Dir string

	// Events receives launch and reap records.
	Events logger.Recorder

	// Report is called with errors that abort a command or stage.
	Report func(error)
}

// NewOrchestrator creates an orchestrator that re-executes the running binary
// and shares the process's standard streams.
func NewOrchestrator() (*Orchestrator, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		Self:   self,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Events: logger.NopRecorder{},
	}, nil
}

// Run executes the command using the topology selected by its Background
// flag. pipe must be non-nil for pipelined commands; Run closes it.
func (o *Orchestrator) Run(cmd *shell.Command, pipe *Pipe) []Reaped {
	if cmd.Background {
		return o.Background(cmd, pipe)
	}
	return o.Foreground(cmd, pipe)
}

// Foreground starts every stage, closes the pipe in the shell, then waits for
// the stages in order. If the first stage can't be started the second isn't
// attempted.
func (o *Orchestrator) Foreground(cmd *shell.Command, pipe *Pipe) []Reaped {
	defer pipe.Close()

	var handles []*Handle
	for i, st := range cmd.Stages() {
		h, err := o.spawn(HelperStage, i, st, pipe)
		if err != nil {
			o.report(err)
			if i == 0 {
				break
			}
			continue
		}
		handles = append(handles, h)
	}

	// The reader only sees end of file once no process holds the write end.
	pipe.Close()

	var reaped []Reaped
	for _, h := range handles {
		reaped = append(reaped, o.reap(h, false))
	}
	return reaped
}

// Background launches each stage through a short lived intermediate that
// starts the real worker and exits. The shell waits for the intermediate
// only, so workers run on after Background returns and are never reaped by
// the shell. A failed launch of the first stage stops the second from
// starting without its writer.
func (o *Orchestrator) Background(cmd *shell.Command, pipe *Pipe) []Reaped {
	defer pipe.Close()

	var reaped []Reaped
	for i, st := range cmd.Stages() {
		h, err := o.spawn(HelperDetach, i, st, pipe)
		if err != nil {
			o.report(err)
			if i == 0 {
				break
			}
			continue
		}

		r := o.reap(h, true)
		reaped = append(reaped, r)

		if r.Status != 0 {
			o.report(&ResourceError{Op: "could not launch background process", Name: st.Argv[0], Err: fmt.Errorf("exit status %d", r.Status)})
			if i == 0 {
				break
			}
		}
	}
	return reaped
}

func (o *Orchestrator) spawn(helper string, index int, st shell.Stage, pipe *Pipe) (*Handle, error) {
	c := exec.Command(o.Self, append([]string{helper}, stageArgs(st)...)...)
	// A nil *os.File in an io.Reader would hand the child a closed descriptor.
	if o.Stdin != nil {
		c.Stdin = o.Stdin
	}
	if o.Stdout != nil {
		c.Stdout = o.Stdout
	}
	if o.Stderr != nil {
		c.Stderr = o.Stderr
	}
	c.Dir = o.Dir
	if end := pipe.End(st.Role); end != nil {
		c.ExtraFiles = []*os.File{end}
	}

	if err := c.Start(); err != nil {
		o.record(logger.EventError, logger.Fields{
			"kind":  "spawn",
			"stage": index,
			"argv":  st.Argv,
			"error": err,
		})
		return nil, &ResourceError{Op: "could not start process", Name: st.Argv[0], Err: err}
	}

	h := &Handle{Stage: index, Role: st.Role, Argv: st.Argv, cmd: c}
	o.record(logger.EventLaunch, logger.Fields{
		"stage":      index,
		"role":       st.Role,
		"pid":        h.Pid(),
		"argv":       st.Argv,
		"background": helper == HelperDetach,
	})
	return h, nil
}

func (o *Orchestrator) reap(h *Handle, detached bool) Reaped {
	status, err := h.Wait()
	if err != nil {
		o.report(&ResourceError{Op: "could not wait for process", Name: h.Argv[0], Err: err})
	}

	r := Reaped{
		Stage:    h.Stage,
		Role:     h.Role,
		Pid:      h.Pid(),
		Status:   status,
		Detached: detached,
	}

	o.record(logger.EventReap, logger.Fields{
		"stage":    r.Stage,
		"role":     r.Role,
		"pid":      r.Pid,
		"status":   r.Status,
		"detached": r.Detached,
		"argv":     h.Argv,
	})
	return r
}

func (o *Orchestrator) report(err error) {
	if o.Report != nil {
		o.Report(err)
	}
}

func (o *Orchestrator) record(event string, fields logger.Fields) {
	if o.Events == nil {
		return
	}
	if err := o.Events.Record(event, fields); err != nil {
		o.report(err)
	}
}
