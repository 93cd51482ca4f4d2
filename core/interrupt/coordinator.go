// Package interrupt owns the shell's interrupt state.
//
// An interrupt moves the coordinator from Idle to Delivered: the flag is set
// and a single newline is written so the prompt reappears on a clean line.
// The executor moves it back to Idle once per pipeline with Reset. While a
// deferral scope is open, deliveries are held and performed when the last
// scope closes, the way a blocked signal stays pending until it is unblocked.
package interrupt

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Coordinator tracks interrupt delivery for one shell process.
type Coordinator struct {
	out  io.Writer
	flag atomic.Bool
	wake chan struct{}

	mu      sync.Mutex
	depth   int
	pending bool

	sigs chan os.Signal
	done chan struct{}
}

// New creates an idle coordinator that echoes deliveries to out.
func New(out io.Writer) *Coordinator {
	return &Coordinator{
		out:  out,
		wake: make(chan struct{}, 1),
	}
}

// Install routes the process's interrupt signal to the coordinator. Until
// Close is called the signal no longer terminates the process.
func (c *Coordinator) Install() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigs != nil {
		return
	}

	c.sigs = make(chan os.Signal, 1)
	c.done = make(chan struct{})
	signal.Notify(c.sigs, os.Interrupt)

	go func(sigs <-chan os.Signal, done <-chan struct{}) {
		for {
			select {
			case <-sigs:
				c.Deliver()
			case <-done:
				return
			}
		}
	}(c.sigs, c.done)
}

// Close restores the default interrupt disposition.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigs == nil {
		return
	}

	signal.Stop(c.sigs)
	close(c.done)
	c.sigs = nil
	c.done = nil
}

// Deliver records one interrupt. It is what the signal handler runs, and
// tests call it directly.
func (c *Coordinator) Deliver() {
	c.mu.Lock()
	if c.depth > 0 {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.deliver()
}

func (c *Coordinator) deliver() {
	c.flag.Store(true)
	fmt.Fprintln(c.out)

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Block defers delivery until the matching Unblock.
func (c *Coordinator) Block() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depth++
}

// Unblock closes one deferral scope. Closing the outermost scope performs a
// delivery held while it was open. Several held interrupts coalesce into one.
func (c *Coordinator) Unblock() {
	c.mu.Lock()
	if c.depth == 0 {
		c.mu.Unlock()
		return
	}
	c.depth--
	release := c.depth == 0 && c.pending
	if release {
		c.pending = false
	}
	c.mu.Unlock()

	if release {
		c.deliver()
	}
}

// Defer opens a deferral scope and returns the function that closes it.
//
//	defer c.Defer()()
func (c *Coordinator) Defer() (restore func()) {
	c.Block()
	var once sync.Once
	return func() {
		once.Do(c.Unblock)
	}
}

// Interrupted reports whether an interrupt was delivered since the last Reset.
func (c *Coordinator) Interrupted() bool {
	return c.flag.Load()
}

// Reset returns the coordinator to Idle and reports whether it was Delivered.
func (c *Coordinator) Reset() bool {
	select {
	case <-c.wake:
	default:
	}
	return c.flag.Swap(false)
}

// Wake receives a value after each delivery so a blocked reader can give up
// waiting and prompt again.
func (c *Coordinator) Wake() <-chan struct{} {
	return c.wake
}
