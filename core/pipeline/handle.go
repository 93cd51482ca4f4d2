package pipeline

import (
	"errors"
	"os"
	"os/exec"
)

// Handle is a waitable, launched stage.
type Handle interface {
	// Index returns the stage's position in the pipeline.
	Index() int
	// Name returns the stage's program name.
	Name() string
	// Pid returns the child's process id, or 0 if no process was started.
	Pid() int
	// Wait blocks until the stage terminates. It returns nil only for a
	// normal exit with status zero. Only the first call waits.
	Wait() error
	// Terminate sends sig to a child that has not been reaped. A child that
	// has already gone is not an error.
	Terminate(sig os.Signal) error
}

// childTable holds a Handle per launched stage in launch order.
type childTable []Handle

// procHandle is a started child process.
type procHandle struct {
	index  int
	name   string
	cmd    *exec.Cmd
	waited bool
	err    error
}

var _ Handle = (*procHandle)(nil)

func (h *procHandle) Index() int   { return h.index }
func (h *procHandle) Name() string { return h.name }
func (h *procHandle) Pid() int     { return h.cmd.Process.Pid }

func (h *procHandle) Wait() error {
	if !h.waited {
		h.waited = true
		h.err = stageError(h.index, h.name, h.cmd.Wait())
	}
	return h.err
}

func (h *procHandle) Terminate(sig os.Signal) error {
	if h.cmd.ProcessState != nil {
		return nil
	}
	err := h.cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// failedHandle stands for a stage whose child could not be started. Waiting
// on it reports the failure the way a child that died before exec would.
type failedHandle struct {
	index int
	name  string
	err   error
}

var _ Handle = (*failedHandle)(nil)

func (h *failedHandle) Index() int   { return h.index }
func (h *failedHandle) Name() string { return h.name }
func (h *failedHandle) Pid() int     { return 0 }

func (h *failedHandle) Wait() error {
	return &StageError{Index: h.index, Name: h.name, Code: 1, Err: h.err}
}

func (h *failedHandle) Terminate(os.Signal) error {
	return nil
}
