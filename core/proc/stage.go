package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/josephlewis42/minishell/core/shell"
	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"
)

const (
	// HelperStage is the argument that turns the shell executable into a
	// forked child: it sets up its descriptors and execs the stage program.
	HelperStage = "__stage"
	// HelperDetach is the argument that turns the shell executable into the
	// intermediate of a double fork: it starts a HelperStage worker and exits
	// without waiting for it.
	HelperDetach = "__detach"

	// pipeDescriptor is where a child finds its end of the pipe, the first
	// entry of exec.Cmd.ExtraFiles.
	pipeDescriptor = 3

	// outputPerm is rw-r--r-- before the umask is applied.
	outputPerm = 0644
)

// RunHelper runs the helper role named by args[1], where args is a full
// argument vector like os.Args. ok is false if args don't name a helper.
func RunHelper(args []string) (code int, ok bool) {
	if len(args) < 2 {
		return 0, false
	}

	switch args[1] {
	case HelperStage:
		return StageMain(args[2:], os.Stderr), true
	case HelperDetach:
		self, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "minishell: %v\n", err)
			return 1, true
		}
		return DetachMain(self, args[2:], os.Stderr), true
	default:
		return 0, false
	}
}

// stageArgs encodes a stage as helper arguments.
func stageArgs(st shell.Stage) []string {
	args := []string{"--role", st.Role.String()}
	if st.Infile != "" {
		args = append(args, "--in", st.Infile)
	}
	if st.Outfile != "" {
		args = append(args, "--out", st.Outfile)
	}
	if st.Append {
		args = append(args, "--append")
	}
	args = append(args, "--")
	return append(args, st.Argv...)
}

// parseStageArgs is the inverse of stageArgs.
func parseStageArgs(name string, args []string) (*shell.Stage, error) {
	opts := getopt.New()
	role := opts.StringLong("role", 'r', shell.RoleSole.String(), "pipe role (sole|writer|reader)")
	infile := opts.StringLong("in", 'i', "", "read standard input from FILE", "FILE")
	outfile := opts.StringLong("out", 'o', "", "write standard output to FILE", "FILE")
	appendOut := opts.BoolLong("append", 'a', "append to the output file rather than truncating it")

	if err := opts.Getopt(append([]string{name}, args...), nil); err != nil {
		return nil, err
	}

	parsedRole, err := shell.ParseRole(*role)
	if err != nil {
		return nil, err
	}

	if opts.NArgs() == 0 {
		return nil, errors.New("missing command")
	}

	return &shell.Stage{
		Argv:    opts.Args(),
		Role:    parsedRole,
		Infile:  *infile,
		Outfile: *outfile,
		Append:  *appendOut,
	}, nil
}

// StageMain is the body of a forked child. It wires the pipe and redirections
// onto standard input and output, then replaces the process with the stage's
// program. It only returns if something went wrong, with the exit status the
// child should use.
func StageMain(args []string, stderr io.Writer) int {
	st, err := parseStageArgs(HelperStage, args)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", HelperStage, err)
		return 2
	}

	if err := SetupChild(st); err != nil {
		fmt.Fprintf(stderr, "minishell: %v\n", err)
		return 1
	}

	err = execStage(st)
	fmt.Fprintf(stderr, "minishell: %v\n", err)
	return 1
}

// DetachMain is the body of the double fork intermediate. It starts a worker
// for the stage and exits right away so the worker is adopted by init and the
// shell never has to reap it.
func DetachMain(self string, args []string, stderr io.Writer) int {
	st, err := parseStageArgs(HelperDetach, args)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", HelperDetach, err)
		return 2
	}

	worker := exec.Command(self, append([]string{HelperStage}, args...)...)
	worker.Stdin = os.Stdin
	worker.Stdout = os.Stdout
	worker.Stderr = os.Stderr

	var pipeEnd *os.File
	if st.Role != shell.RoleSole {
		pipeEnd = os.NewFile(pipeDescriptor, "pipe")
		worker.ExtraFiles = []*os.File{pipeEnd}
	}

	err = worker.Start()
	if pipeEnd != nil {
		pipeEnd.Close()
	}
	if err != nil {
		fmt.Fprintf(stderr, "minishell: %v\n", &ResourceError{Op: "second fork failed", Name: st.Argv[0], Err: err})
		return 1
	}

	// Nobody waits on the worker from here on.
	worker.Process.Release()
	return 0
}

// SetupChild prepares the descriptors of the current process for a stage.
// The writer's stdout and the reader's stdin are replaced by the pipe on
// descriptor 3, which is then closed. File redirections are applied after.
func SetupChild(st *shell.Stage) error {
	switch st.Role {
	case shell.RoleWriter:
		if err := movePipe(unix.Stdout); err != nil {
			return err
		}
	case shell.RoleReader:
		if err := movePipe(unix.Stdin); err != nil {
			return err
		}
	}

	if st.Infile != "" {
		if err := redirect(st.Infile, unix.O_RDONLY, unix.Stdin); err != nil {
			return &ResourceError{Op: "could not open the input file", Name: st.Infile, Err: err}
		}
	}

	if st.Outfile != "" {
		flags := unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
		if st.Append {
			flags = unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND
		}
		if err := redirect(st.Outfile, flags, unix.Stdout); err != nil {
			return &ResourceError{Op: "could not open the output file", Name: st.Outfile, Err: err}
		}
	}

	return nil
}

func movePipe(target int) error {
	if err := dup2(pipeDescriptor, target); err != nil {
		return &ResourceError{Op: "could not redirect descriptors", Err: err}
	}
	return unix.Close(pipeDescriptor)
}

// redirect opens path and puts it on descriptor target.
func redirect(path string, flags, target int) error {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, outputPerm)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	return dup2(fd, target)
}

// execStage replaces the current process with the stage's program, resolved
// on PATH. It only returns on failure.
func execStage(st *shell.Stage) error {
	path, err := exec.LookPath(st.Argv[0])
	if err != nil {
		return &ExecError{Name: st.Argv[0], Err: err}
	}

	return &ExecError{Name: st.Argv[0], Err: unix.Exec(path, st.Argv, os.Environ())}
}
