package pipeline

import (
	"fmt"

	"github.com/josephlewis42/mush/core/logger"
	"go.uber.org/multierr"
)

// reap waits for every child in launch order with interrupt delivery
// deferred, so no wait is cut short and no child is left unreaped. The
// parent's pipe ends are closed first so each stage sees end of file once its
// writers are gone. Every child is waited even after a failure.
func (e *Executor) reap(children childTable, pipes *PipeSet, log *logger.ExecutionLogger) error {
	defer e.Interrupts.Defer()()

	var err error
	if cerr := pipes.Close(); cerr != nil {
		fmt.Fprintf(e.OS.Stderr(), "mush: closing pipes: %v\n", cerr)
		err = multierr.Append(err, cerr)
	}

	for _, child := range children {
		werr := child.Wait()
		log.Exit(child.Index(), child.Name(), werr)
		err = multierr.Append(err, werr)
	}
	return err
}
