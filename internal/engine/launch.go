// Released under an MIT license. See LICENSE.

package engine

import (
	"fmt"
	"os"

	"github.com/michaelmacinnis/tsh/internal/reader/parser"
	"github.com/michaelmacinnis/tsh/internal/system/job"
	"github.com/michaelmacinnis/tsh/internal/system/process"
	"github.com/michaelmacinnis/tsh/internal/system/signals"
	"github.com/michaelmacinnis/tsh/internal/system/sio"
)

// launch starts an external command as a new job.
func (e *T) launch(c *parser.Command, line string) {
	name := c.Argv[0]

	path, err := process.LookPath(name, e.path)
	if err != nil {
		fmt.Fprintf(e.stdout, "%s: Command not found\n", name)

		return
	}

	files, err := e.redirect(c)
	if err != nil {
		fmt.Fprintf(e.stdout, "%v\n", err)

		return
	}
	defer closeAll(files)

	prev := e.gate.Block(signals.Control)
	defer e.gate.SetMask(prev)

	if e.jobs.Full() {
		_, _ = sio.Puts(e.out, "Tried to create too many jobs\n")

		return
	}

	pid, err := e.os.Start(path, c.Argv, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{files[0], files[1], files[2]},
		Sys:   process.SysProcAttr(),
	})
	if err != nil {
		if process.IsExecError(err) {
			_, _ = sio.Fprintf(e.out, "%s: Command not found\n", sio.Str(name))

			return
		}

		_, _ = sio.Fprintf(e.out, "fork error: %s\n", sio.Str(err.Error()))
		e.exit(1)

		return
	}

	state := job.Foreground
	if c.Kind == parser.Background {
		state = job.Background
	}

	jid, err := e.jobs.Add(pid, state, line)
	if err != nil {
		e.report(err)

		return
	}

	if state == job.Background {
		_, _ = sio.Fprintf(e.out, "[%d] (%d) %s\n",
			sio.Int(jid), sio.Int(pid), sio.Str(line))

		return
	}

	e.wait(prev, pid)
}

// redirect returns the child's standard input, output and error followed by
// any files it opened, which closeAll closes.
func (e *T) redirect(c *parser.Command) ([]*os.File, error) {
	files := []*os.File{e.stdin, e.stdout, e.stderr}

	if c.Infile != "" {
		f, err := os.Open(c.Infile)
		if err != nil {
			return nil, err
		}

		files[0] = f
		files = append(files, f)
	}

	if c.Outfile != "" {
		f, err := os.OpenFile(c.Outfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			closeAll(files)

			return nil, err
		}

		files[1] = f
		files = append(files, f)
	}

	return files, nil
}

func closeAll(files []*os.File) {
	for _, f := range files[3:] {
		f.Close()
	}
}
