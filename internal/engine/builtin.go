// Released under an MIT license. See LICENSE.

package engine

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/michaelmacinnis/tsh/internal/reader/parser"
	"github.com/michaelmacinnis/tsh/internal/system/job"
	"github.com/michaelmacinnis/tsh/internal/system/process"
	"github.com/michaelmacinnis/tsh/internal/system/signals"
	"github.com/michaelmacinnis/tsh/internal/system/sio"
)

// ErrReference is wrapped by every error for a bad bg or fg argument.
var ErrReference = errors.New("invalid job reference")

type referenceError struct {
	msg string
}

func (e *referenceError) Error() string {
	return e.msg
}

func (e *referenceError) Unwrap() error {
	return ErrReference
}

func reference(format string, args ...interface{}) error {
	return &referenceError{fmt.Sprintf(format, args...)}
}

func (e *T) bg(c *parser.Command) {
	defer e.gate.SetMask(e.gate.Block(signals.Control))

	j, err := e.resolve(c.Argv)
	if err != nil {
		e.report(err)

		return
	}

	if err := e.jobs.SetState(j, job.Background); err != nil {
		e.report(err)

		return
	}

	_ = process.Continue(e.os, j.PID())

	_, _ = sio.Fprintf(e.out, "[%d] (%d) %s\n",
		sio.Int(j.JID()), sio.Int(j.PID()), sio.Str(j.Cmdline()))
}

func (e *T) fg(c *parser.Command) {
	prev := e.gate.Block(signals.Control)
	defer e.gate.SetMask(prev)

	j, err := e.resolve(c.Argv)
	if err != nil {
		e.report(err)

		return
	}

	if err := e.jobs.SetState(j, job.Foreground); err != nil {
		e.report(err)

		return
	}

	pid := j.PID()

	_ = process.Continue(e.os, pid)

	_, _ = sio.Fprintf(e.out, "[%d] (%d) %s\n",
		sio.Int(j.JID()), sio.Int(pid), sio.Str(j.Cmdline()))

	e.wait(prev, pid)
}

func (e *T) list(c *parser.Command) {
	fd := e.out

	if c.Outfile != "" {
		f, err := os.OpenFile(c.Outfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			fmt.Fprintf(e.stdout, "%v\n", err)

			return
		}
		defer f.Close()

		fd = int(f.Fd())
	}

	e.gate.Do(signals.Control, func() {
		_ = e.jobs.List(fd)
	})
}

// report prints err. The caller has the control set blocked.
func (e *T) report(err error) {
	_, _ = sio.Fprintf(e.out, "%s\n", sio.Str(err.Error()))
}

// resolve finds the job named by a bg or fg argument: a PID or %jobid.
// The caller has the control set blocked.
func (e *T) resolve(argv []string) (*job.T, error) {
	name := argv[0]

	if len(argv) < 2 {
		return nil, reference("%s command requires PID or %%jobid argument", name)
	}

	arg := argv[1]

	if s := strings.TrimPrefix(arg, "%"); s != arg {
		jid, err := strconv.Atoi(s)
		if err != nil || jid < 1 {
			return nil, reference("%s: argument must be a PID or %%jobid", name)
		}

		j := e.jobs.FindJID(jid)
		if j == nil {
			return nil, reference("%%%d: No such job", jid)
		}

		return j, nil
	}

	pid, err := strconv.Atoi(arg)
	if err != nil || pid < 1 {
		return nil, reference("%s: argument must be a PID or %%jobid", name)
	}

	j := e.jobs.FindPID(pid)
	if j == nil {
		return nil, reference("(%d): No such process", pid)
	}

	return j, nil
}
