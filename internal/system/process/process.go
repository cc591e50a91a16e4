// Released under an MIT license. See LICENSE.

// Package process wraps the system calls the shell makes on its children.
//
// Everything the dispatcher and the signal handlers do to another process
// goes through the OS interface so that tests can interpose on it, for
// example to inject delays that shake out races.
package process

import (
	"os"

	"golang.org/x/sys/unix"
)

// OS is the set of process operations used by the shell.
type OS interface {
	// Kill sends sig to pid. A negative pid names a process group.
	Kill(pid int, sig unix.Signal) error

	// Start starts the program at path and returns its process ID. The
	// child is not waited for; reaping is left to the caller.
	Start(path string, argv []string, attr *os.ProcAttr) (int, error)

	// Wait reports a status change for the child pid (-1 for any child)
	// as wait4 does.
	Wait(pid int, status *unix.WaitStatus, options int) (int, error)
}

// Unix is the OS backed by the running kernel.
type Unix struct{}

// Kill sends sig to pid.
func (Unix) Kill(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

// Start starts path with argv. The returned process handle is released
// immediately; the process is reaped with Wait.
func (Unix) Start(path string, argv []string, attr *os.ProcAttr) (int, error) {
	p, err := os.StartProcess(path, argv, attr)
	if err != nil {
		return 0, err
	}

	pid := p.Pid

	_ = p.Release()

	return pid, nil
}

// Wait calls wait4 without collecting resource usage.
func (Unix) Wait(pid int, status *unix.WaitStatus, options int) (int, error) {
	return unix.Wait4(pid, status, options, nil)
}

// Continue sends a SIGCONT to every process in the group g.
func Continue(o OS, g int) error {
	return o.Kill(-g, unix.SIGCONT)
}

// SysProcAttr returns the attributes that start a child as the leader of a
// new process group, so that signals the terminal sends to the shell's group
// do not also reach the child.
func SysProcAttr() *unix.SysProcAttr {
	return &unix.SysProcAttr{Setpgid: true}
}
