package pipeline

import (
	"fmt"
	"io"
	"syscall"

	"github.com/josephlewis42/mush/core/interrupt"
	"github.com/josephlewis42/mush/core/logger"
	"github.com/josephlewis42/mush/core/vos"
	"go.uber.org/multierr"
)

// Executor runs pipelines for one shell.
type Executor struct {
	// OS supplies the standard streams, environment and working directory.
	OS vos.VOS
	// Interrupts is the shell's interrupt state.
	Interrupts *interrupt.Coordinator
	// KillSignal is sent to children still running after an interrupt.
	KillSignal syscall.Signal
	// Log records execution events.
	Log *logger.Logger

	newPipeSet func(stages int) (*PipeSet, error)
}

// NewExecutor creates an Executor that kills leftover children with SIGKILL
// after an interrupt.
func NewExecutor(virtOS vos.VOS, interrupts *interrupt.Coordinator, log *logger.Logger) *Executor {
	return &Executor{
		OS:         virtOS,
		Interrupts: interrupts,
		KillSignal: syscall.SIGKILL,
		Log:        log,
	}
}

// execution is the bookkeeping for one Run.
type execution struct {
	pipes    int
	builtins int
	children childTable
}

// Run executes the pipeline and reports whether every launched stage exited
// normally with status zero. The error is ErrInterrupted (possibly combined
// with stage failures) when an interrupt arrived during the execution, a
// *StageError per failed stage, or a setup error. The interrupt flag is
// cleared before Run returns.
func (e *Executor) Run(pl Pipeline) error {
	_, err := e.execute(pl)
	return err
}

func (e *Executor) execute(pl Pipeline) (ex *execution, err error) {
	if e.Interrupts == nil {
		e.Interrupts = interrupt.New(io.Discard)
	}

	log := e.logger().NewExecution()
	log.Start(pl.String(), len(pl))
	defer func() {
		if e.Interrupts.Reset() {
			if ex != nil {
				e.terminate(ex.children, log)
			}
			log.Interrupted()
			err = multierr.Append(ErrInterrupted, err)
		}
		log.End(err, ExitCode(err))
	}()

	if err := pl.Validate(); err != nil {
		fmt.Fprintf(e.OS.Stderr(), "mush: %v\n", err)
		return nil, err
	}

	newPipeSet := e.newPipeSet
	if newPipeSet == nil {
		newPipeSet = NewPipeSet
	}
	pipes, err := newPipeSet(len(pl))
	if err != nil {
		fmt.Fprintf(e.OS.Stderr(), "mush: %v\n", err)
		return nil, err
	}
	defer pipes.Close()

	ex = &execution{
		pipes:    pipes.Len(),
		children: make(childTable, 0, len(pl)),
	}

	for i, stage := range pl {
		if b, ok := LookupBuiltin(stage.Name()); ok {
			log.Builtin(i, b.Name())
			b.Main(e.OS, stage.Args)
			ex.builtins++
			continue
		}
		ex.children = append(ex.children, e.launch(i, len(pl), stage, pipes, log))
	}

	return ex, e.reap(ex.children, pipes, log)
}

// terminate signals every recorded child that is still running. Children that
// have already exited are skipped; other failures are reported.
func (e *Executor) terminate(children childTable, log *logger.ExecutionLogger) {
	sig := e.KillSignal
	if sig == 0 {
		sig = syscall.SIGKILL
	}
	for _, child := range children {
		if err := child.Terminate(sig); err != nil {
			fmt.Fprintf(e.OS.Stderr(), "mush: kill %s: %v\n", child.Name(), err)
			log.Terminate(child.Index(), child.Pid(), err)
		}
	}
}

func (e *Executor) logger() *logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}
	return e.Log
}
