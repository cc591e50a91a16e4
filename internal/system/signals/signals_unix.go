// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package signals

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Notify routes SIGCHLD, SIGINT, SIGTSTP and SIGQUIT to the gate and
// ignores SIGTTIN and SIGTTOU. The returned function undoes the routing.
func (g *Gate) Notify() (stop func()) {
	signal.Ignore(unix.SIGTTIN, unix.SIGTTOU)

	signals := []os.Signal{
		unix.SIGCHLD, unix.SIGINT, unix.SIGTSTP, unix.SIGQUIT,
	}

	signalq := make(chan os.Signal, len(signals)+1)
	done := make(chan struct{})

	signal.Notify(signalq, signals...)

	go func() {
		for {
			select {
			case <-done:
				return
			case s := <-signalq:
				g.Raise(setOf(s))
			}
		}
	}()

	return func() {
		signal.Stop(signalq)
		close(done)
	}
}

func setOf(s os.Signal) Set {
	switch s {
	case unix.SIGCHLD:
		return Child
	case unix.SIGINT:
		return Interrupt
	case unix.SIGTSTP:
		return Stop
	case unix.SIGQUIT:
		return Quit
	}

	return 0
}
