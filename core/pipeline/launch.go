package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/josephlewis42/mush/core/logger"
)

// Redirection files are created with these permissions before the umask.
const outFilePerm = 0666

// launch starts stage i of n. It always returns a Handle: a stage that cannot
// be started yields a handle whose Wait reports the failure, so launch
// failures surface through the reap like any other stage failure and never
// touch the executor's own state.
func (e *Executor) launch(i, n int, stage Stage, pipes *PipeSet, log *logger.ExecutionLogger) Handle {
	name := stage.Name()
	fail := func(subject string, err error) Handle {
		fmt.Fprintf(e.OS.Stderr(), "mush: %s: %s\n", subject, launchErrorText(err))
		log.LaunchFailed(i, name, err)
		return &failedHandle{index: i, name: name, err: err}
	}

	stdin := e.OS.Stdin()
	if i > 0 {
		stdin = pipes.Input(i)
	}
	stdout := e.OS.Stdout()
	if i < n-1 {
		stdout = pipes.Output(i)
	}

	// Files opened here belong to this stage only; the child holds its own
	// copies once started.
	var opened []*os.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	if stage.InFile != "" {
		f, err := os.Open(stage.InFile)
		if err != nil {
			return fail(stage.InFile, err)
		}
		opened = append(opened, f)
		stdin = f
	}

	if stage.OutFile != "" {
		f, err := os.OpenFile(stage.OutFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outFilePerm)
		if err != nil {
			return fail(stage.OutFile, err)
		}
		opened = append(opened, f)
		stdout = f
	}

	cmd := exec.Command(name, stage.Args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = e.OS.Stderr()
	cmd.Env = e.OS.Environ()

	if err := cmd.Start(); err != nil {
		return fail(name, err)
	}

	log.Launch(i, name, cmd.Process.Pid)
	return &procHandle{index: i, name: name, cmd: cmd}
}

// launchErrorText strips the operation wrappers from err, leaving the
// reason a stage could not start.
func launchErrorText(err error) string {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return execErr.Err.Error()
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
