package pipeline

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// osPipe creates one pipe. Replaced in tests to simulate exhaustion.
var osPipe = os.Pipe

// Pipe is one anonymous pipe between adjacent stages.
type Pipe struct {
	R *os.File
	W *os.File
}

// PipeSet owns the pipes of one pipeline execution. Pipe i connects stage i
// to stage i+1.
//
// Go creates pipes close-on-exec, so a child only ever holds the ends it was
// handed as standard input or output.
type PipeSet struct {
	pipes  []Pipe
	closed bool
}

// NewPipeSet allocates the stages-1 pipes needed to chain the given number of
// stages. If any allocation fails, the pipes already made are closed.
func NewPipeSet(stages int) (*PipeSet, error) {
	if stages < 1 {
		return nil, ErrEmptyPipeline
	}

	ps := &PipeSet{pipes: make([]Pipe, 0, stages-1)}
	for k := 0; k < stages-1; k++ {
		r, w, err := osPipe()
		if err != nil {
			_ = ps.Close()
			return nil, fmt.Errorf("pipe %d: %w", k, err)
		}
		ps.pipes = append(ps.pipes, Pipe{R: r, W: w})
	}
	return ps, nil
}

// Len returns the number of pipes.
func (ps *PipeSet) Len() int {
	return len(ps.pipes)
}

// Pipe returns pipe k.
func (ps *PipeSet) Pipe(k int) Pipe {
	return ps.pipes[k]
}

// Input returns the read end feeding stage i, or nil for the first stage.
func (ps *PipeSet) Input(i int) *os.File {
	if i <= 0 || i > len(ps.pipes) {
		return nil
	}
	return ps.pipes[i-1].R
}

// Output returns the write end stage i writes to, or nil for the last stage.
func (ps *PipeSet) Output(i int) *os.File {
	if i < 0 || i >= len(ps.pipes) {
		return nil
	}
	return ps.pipes[i].W
}

// Close closes both ends of every pipe. An end that is the process's own
// standard input or output is left open. Calling Close again does nothing.
func (ps *PipeSet) Close() error {
	if ps == nil || ps.closed {
		return nil
	}
	ps.closed = true

	var err error
	for _, p := range ps.pipes {
		err = multierr.Append(err, closeEnd(p.R, os.Stdin))
		err = multierr.Append(err, closeEnd(p.W, os.Stdout))
	}
	return err
}

func closeEnd(end, std *os.File) error {
	if end == nil || std != nil && end.Fd() == std.Fd() {
		return nil
	}
	if err := end.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
