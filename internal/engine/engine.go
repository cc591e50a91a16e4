// Released under an MIT license. See LICENSE.

// Package engine evaluates command lines: it runs the builtins itself and
// launches everything else as a job.
package engine

import (
	"fmt"
	"os"

	"github.com/michaelmacinnis/tsh/internal/engine/handler"
	"github.com/michaelmacinnis/tsh/internal/reader/parser"
	"github.com/michaelmacinnis/tsh/internal/system/job"
	"github.com/michaelmacinnis/tsh/internal/system/process"
	"github.com/michaelmacinnis/tsh/internal/system/signals"
)

// Config holds the settings for a new engine. Zero values select defaults.
type Config struct {
	// Capacity is the size of the job table (job.MaxJobs if zero).
	Capacity int

	// Exit terminates the shell (os.Exit if nil).
	Exit func(code int)

	// OS performs process operations (process.Unix if nil).
	OS process.OS

	// Path is the search path for commands ($PATH if empty).
	Path string

	Stderr *os.File
	Stdin  *os.File
	Stdout *os.File

	// Verbose traces job table changes.
	Verbose bool
}

// T (engine) holds the state shared by the main loop and the handlers.
type T struct {
	exit   func(int)
	gate   *signals.Gate
	jobs   *job.Table
	os     process.OS
	out    int
	path   string
	stderr *os.File
	stdin  *os.File
	stdout *os.File
	stop   func()
}

// New creates an engine with its signal handlers installed. Signals from
// the operating system reach it only after Monitor is called.
func New(c Config) *T {
	if c.Capacity == 0 {
		c.Capacity = job.MaxJobs
	}

	if c.Exit == nil {
		c.Exit = os.Exit
	}

	if c.OS == nil {
		c.OS = process.Unix{}
	}

	if c.Path == "" {
		c.Path = os.Getenv("PATH")
	}

	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}

	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}

	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	e := &T{
		exit:   c.Exit,
		gate:   signals.New(),
		jobs:   job.New(c.Capacity),
		os:     c.OS,
		out:    int(c.Stdout.Fd()),
		path:   c.Path,
		stderr: c.Stderr,
		stdin:  c.Stdin,
		stdout: c.Stdout,
	}

	e.jobs.Guard(func() bool { return e.gate.Blocked(signals.Control) })

	if c.Verbose {
		e.jobs.Trace(e.out)
	}

	h := &handler.T{
		Exit: e.exit,
		Jobs: e.jobs,
		OS:   e.os,
		Out:  e.out,
	}
	h.Install(e.gate)

	return e
}

// Close stops signal delivery.
func (e *T) Close() {
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}

	e.gate.Close()
}

// Evaluate parses and runs a single command line.
func (e *T) Evaluate(line string) {
	c, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintf(e.stdout, "Error: %v\n", err)

		return
	}

	if c.Kind == parser.Empty {
		return
	}

	switch c.Builtin {
	case parser.Quit:
		e.exit(0)
	case parser.Jobs:
		e.list(c)
	case parser.Bg:
		e.bg(c)
	case parser.Fg:
		e.fg(c)
	default:
		e.launch(c, line)
	}
}

// Monitor routes the operating system's signals to the engine's handlers.
func (e *T) Monitor() {
	if e.stop == nil {
		e.stop = e.gate.Notify()
	}
}

// wait blocks until the job pid is no longer in the foreground. The caller
// has the control set blocked and passes the mask it had before.
func (e *T) wait(prev signals.Set, pid int) {
	for {
		j := e.jobs.FindPID(pid)
		if j == nil || j.State() != job.Foreground {
			return
		}

		e.gate.Suspend(prev &^ signals.Control)
	}
}
