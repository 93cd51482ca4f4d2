// Package pipeline executes a chain of commands connected by pipes.
//
// Built-in stages run inside the shell process. Every other stage is started
// as a child process whose standard input and output are wired to its
// neighbours or to redirection files. All children are reaped before Run
// returns, and every descriptor the execution opened is closed on every path.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
)

var (
	// ErrEmptyPipeline is returned for a pipeline with no stages.
	ErrEmptyPipeline = errors.New("empty pipeline")
	// ErrEmptyStage is returned for a stage with no program name.
	ErrEmptyStage = errors.New("empty command")
)

// Stage is one command of a pipeline.
type Stage struct {
	// Args holds the program name followed by its arguments.
	Args []string
	// InFile, if set, replaces the stage's default standard input.
	InFile string
	// OutFile, if set, replaces the stage's default standard output. It is
	// created if absent and truncated if present.
	OutFile string
}

// Name returns the program name.
func (s Stage) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

// String renders the stage as a command line.
func (s Stage) String() string {
	var sb strings.Builder
	sb.WriteString(shellquote.Join(s.Args...))
	if s.InFile != "" {
		sb.WriteString(" < ")
		sb.WriteString(shellquote.Join(s.InFile))
	}
	if s.OutFile != "" {
		sb.WriteString(" > ")
		sb.WriteString(shellquote.Join(s.OutFile))
	}
	return sb.String()
}

// Pipeline is an ordered chain of stages; stage i writes to stage i+1.
type Pipeline []Stage

// Validate checks the pipeline has at least one stage and every stage names
// a program.
func (p Pipeline) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPipeline
	}
	for i, s := range p {
		if len(s.Args) == 0 || s.Args[0] == "" {
			return fmt.Errorf("stage %d: %w", i, ErrEmptyStage)
		}
	}
	return nil
}

// String renders the pipeline as a command line.
func (p Pipeline) String() string {
	stages := make([]string, len(p))
	for i, s := range p {
		stages[i] = s.String()
	}
	return strings.Join(stages, " | ")
}

// Describe writes a per-stage breakdown of where each stage reads from and
// writes to.
func (p Pipeline) Describe(w io.Writer) error {
	for i, s := range p {
		input := "stdin"
		switch {
		case s.InFile != "":
			input = fmt.Sprintf("file %q", s.InFile)
		case i > 0:
			input = fmt.Sprintf("pipe from stage %d", i-1)
		}

		output := "stdout"
		switch {
		case s.OutFile != "":
			output = fmt.Sprintf("file %q", s.OutFile)
		case i < len(p)-1:
			output = fmt.Sprintf("pipe to stage %d", i+1)
		}

		if _, err := fmt.Fprintf(w, "stage %d: %s\n", i, s); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  input:  %s\n  output: %s\n  argc:   %d\n  argv:   %q\n", input, output, len(s.Args), s.Args); err != nil {
			return err
		}
	}
	return nil
}
