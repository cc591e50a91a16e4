// Released under an MIT license. See LICENSE.

// Package handler contains the shell's signal handlers.
//
// Handlers run on the signal gate's delivery goroutine while the main loop
// may be stopped at any point outside a blocked section. They are restricted
// to the job table, the sio formatter, the gate's Frame and the process
// interface: no fmt, no allocation, no locks of their own.
package handler

import (
	"github.com/michaelmacinnis/tsh/internal/system/job"
	"github.com/michaelmacinnis/tsh/internal/system/process"
	"github.com/michaelmacinnis/tsh/internal/system/signals"
	"github.com/michaelmacinnis/tsh/internal/system/sio"
	"golang.org/x/sys/unix"
)

// T (handler) holds what the handlers need.
type T struct {
	Exit func(code int)
	Jobs *job.Table
	OS   process.OS
	Out  int
}

// Install registers the handlers on g.
func (h *T) Install(g *signals.Gate) {
	g.Handle(signals.Child, h.Child)
	g.Handle(signals.Interrupt, h.Interrupt)
	g.Handle(signals.Stop, h.Stop)
	g.Handle(signals.Quit, h.Quit)
}

// Child reaps every child with a pending status change. Signals of the same
// kind do not queue, so one delivery may stand for many children.
func (h *T) Child(f *signals.Frame) {
	defer f.SetMask(f.Block(signals.Control))

	const options = unix.WNOHANG | unix.WUNTRACED | unix.WCONTINUED

	var status unix.WaitStatus

	for {
		pid, err := h.OS.Wait(-1, &status, options)
		if err == unix.EINTR { //nolint:errorlint
			continue
		}

		if err == unix.ECHILD { //nolint:errorlint
			return
		}

		if err != nil {
			_, _ = sio.Fprintf(h.Out, "waitpid error: %s\n", sio.Str(err.Error()))
			h.Exit(1)

			return
		}

		if pid <= 0 {
			return
		}

		h.notify(pid, status)
	}
}

// Interrupt forwards SIGINT to the foreground job's process group.
func (h *T) Interrupt(f *signals.Frame) {
	h.forward(f, unix.SIGINT)
}

// Quit terminates the shell.
func (h *T) Quit(_ *signals.Frame) {
	_, _ = sio.Puts(h.Out, "Terminating after receipt of SIGQUIT signal\n")
	h.Exit(1)
}

// Stop forwards SIGTSTP to the foreground job's process group.
func (h *T) Stop(f *signals.Frame) {
	h.forward(f, unix.SIGTSTP)
}

func (h *T) forward(f *signals.Frame, sig unix.Signal) {
	defer f.SetMask(f.Block(signals.Control))

	if pid := h.Jobs.ForegroundPID(); pid != 0 {
		_ = h.OS.Kill(-pid, sig)
	}
}

func (h *T) notify(pid int, status unix.WaitStatus) {
	j := h.Jobs.FindPID(pid)
	if j == nil {
		return
	}

	switch {
	case status.Continued():
		if j.State() == job.Stopped {
			_ = h.Jobs.SetState(j, job.Background)
		}

	case status.Stopped():
		_, _ = sio.Fprintf(h.Out, "Job [%d] (%d) stopped by signal %d\n",
			sio.Int(j.JID()), sio.Int(pid), sio.Int(int(status.StopSignal())))
		_ = h.Jobs.SetState(j, job.Stopped)

	case status.Signaled():
		_, _ = sio.Fprintf(h.Out, "Job [%d] (%d) terminated by signal %d\n",
			sio.Int(j.JID()), sio.Int(pid), sio.Int(int(status.Signal())))
		h.Jobs.Delete(pid)

	case status.Exited():
		h.Jobs.Delete(pid)
	}
}
