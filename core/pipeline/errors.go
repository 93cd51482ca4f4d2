package pipeline

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"go.uber.org/multierr"
)

// ErrInterrupted marks a pipeline cut short by an interrupt.
var ErrInterrupted = errors.New("interrupted")

// StageError describes a stage that did not exit normally with status zero.
type StageError struct {
	// Index is the stage's position in the pipeline.
	Index int
	// Name is the stage's program name.
	Name string
	// Code is the shell-style status: the exit status, or 128+signal for a
	// stage killed by a signal.
	Code int
	// Signal is the terminating signal, if any.
	Signal syscall.Signal
	// Err is the underlying launch or wait error.
	Err error
}

func (e *StageError) Error() string {
	switch {
	case e.Signal != 0:
		return fmt.Sprintf("%s: killed by signal %s", e.Name, e.Signal)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("%s: exit status %d", e.Name, e.Code)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageError converts the result of waiting on a child to a StageError. It
// returns nil for a normal zero exit.
func stageError(index int, name string, err error) error {
	if err == nil {
		return nil
	}

	se := &StageError{Index: index, Name: name, Code: 1, Err: err}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		se.Err = nil
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				se.Signal = ws.Signal()
				se.Code = 128 + int(ws.Signal())
				return se
			}
			se.Code = ws.ExitStatus()
			return se
		}
		se.Code = ee.ExitCode()
	}
	return se
}

// ExitCode returns the shell-style status for the result of Run: 0 on
// success, the status of the last failing stage, or 1 for other failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	code := 1
	for _, e := range multierr.Errors(err) {
		var se *StageError
		if errors.As(e, &se) {
			code = se.Code
		}
	}
	return code
}
