package proc

import "fmt"

// ResourceError reports a failure to create a pipe, process or descriptor.
// It only aborts the command or stage that hit it.
type ResourceError struct {
	Op   string
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s '%s': %v", e.Op, e.Name, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// ExecError reports that a child couldn't replace itself with the program it
// was asked to run.
type ExecError struct {
	Name string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("could not run command '%s': %v", e.Name, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
