// Package core ties the line reader, parser and executor into an interactive
// shell.
package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/josephlewis42/mush/core/config"
	"github.com/josephlewis42/mush/core/interrupt"
	"github.com/josephlewis42/mush/core/logger"
	"github.com/josephlewis42/mush/core/pipeline"
	"github.com/josephlewis42/mush/core/shell"
	"github.com/josephlewis42/mush/core/vos"
	"go.uber.org/multierr"
	"golang.org/x/term"
)

var promptColor = color.New(color.FgGreen, color.Bold)

// Shell reads lines and runs each as a pipeline.
type Shell struct {
	VirtualOS  vos.VOS
	Interrupts *interrupt.Coordinator
	// Input is the source of command lines. It is separate from the VOS
	// stdin, which stages inherit.
	Input      io.Reader
	Executor   *pipeline.Executor

	// Interactive shows a prompt before each line.
	Interactive bool
	// ParseOnly describes each pipeline instead of running it.
	ParseOnly bool

	prompt string
	color  bool
}

// NewShell creates a shell reading command lines from input. The prompt is
// shown when interactive is set.
func NewShell(virtualOS vos.VOS, input io.Reader, configuration *config.Configuration, interrupts *interrupt.Coordinator, log *logger.Logger, interactive bool) (*Shell, error) {
	sig, err := configuration.Signal()
	if err != nil {
		return nil, err
	}

	executor := pipeline.NewExecutor(virtualOS, interrupts, log)
	executor.KillSignal = sig

	return &Shell{
		VirtualOS:   virtualOS,
		Interrupts:  interrupts,
		Input:       input,
		Executor:    executor,
		Interactive: interactive,
		prompt:      configuration.Prompt,
		color:       configuration.ColorPrompt && term.IsTerminal(int(virtualOS.Stdout().Fd())),
	}, nil
}

// Prompt returns the text shown before reading a line.
func (s *Shell) Prompt() string {
	if s.color {
		return promptColor.Sprint(s.prompt) + " "
	}
	return s.prompt + " "
}

// Run reads and executes lines until end of input. It returns the process
// exit status: 0 at end of input, 1 if reading failed.
func (s *Shell) Run() int {
	lines := newLineReader(s.Input)

	for {
		if s.Interactive {
			fmt.Fprint(s.VirtualOS.Stdout(), s.Prompt())
		}

		select {
		case <-s.Interrupts.Wake():
			// The coordinator already moved the cursor to a new line. The
			// outstanding read carries over to the next prompt.
			s.Interrupts.Reset()
			continue

		case res := <-lines.Next():
			lines.Done()
			if line := strings.TrimSuffix(res.line, "\n"); line != "" {
				s.RunLine(line)
			}

			switch {
			case errors.Is(res.err, io.EOF):
				if s.Interactive {
					fmt.Fprintln(s.VirtualOS.Stdout())
				}
				return 0
			case res.err != nil:
				fmt.Fprintf(s.VirtualOS.Stderr(), "mush: %v\n", res.err)
				return 1
			}
		}
	}
}

// RunLine parses and executes a single line. It reports whether the line
// ran successfully.
func (s *Shell) RunLine(line string) bool {
	stderr := s.VirtualOS.Stderr()

	pl, err := shell.Parse(line)
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "mush: %v\n", err)
		return false
	case pl == nil:
		return true
	case s.ParseOnly:
		if err := pl.Describe(s.VirtualOS.Stdout()); err != nil {
			fmt.Fprintf(stderr, "mush: %v\n", err)
			return false
		}
		return true
	}

	err = s.Executor.Run(pl)
	s.reportSignals(err)
	return err == nil
}

// reportSignals prints stages that died from a signal the user did not
// obviously cause. Other failures were already reported by the stage itself
// or by the executor.
func (s *Shell) reportSignals(err error) {
	for _, e := range multierr.Errors(err) {
		var se *pipeline.StageError
		if !errors.As(e, &se) {
			continue
		}
		switch se.Signal {
		case 0, syscall.SIGINT, syscall.SIGPIPE:
		default:
			fmt.Fprintf(s.VirtualOS.Stderr(), "mush: %v\n", se)
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// lineReader reads one line at a time, only when asked, so input typed ahead
// for a running pipeline stays in the terminal for its stages.
type lineReader struct {
	r       *bufio.Reader
	results chan lineResult
	pending bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r:       bufio.NewReader(r),
		results: make(chan lineResult, 1),
	}
}

// Next starts a read if none is outstanding and returns the channel that
// will carry its result. Call Done after taking the result.
func (lr *lineReader) Next() <-chan lineResult {
	if !lr.pending {
		lr.pending = true
		go func() {
			line, err := lr.r.ReadString('\n')
			lr.results <- lineResult{line: line, err: err}
		}()
	}
	return lr.results
}

// Done marks the outstanding read consumed.
func (lr *lineReader) Done() {
	lr.pending = false
}
