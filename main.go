/*
Tsh is a tiny Unix shell with job control. It runs one command per line:

    /bin/ls -l
    sleep 30 &
    cat <in >out

and provides four builtins:

    quit        exit the shell
    jobs        list the running and stopped jobs
    bg <job>    resume a stopped job in the background
    fg <job>    resume a job in the foreground

A job is named by its process ID or by %jobid. Ctrl-C and Ctrl-Z are
forwarded to the foreground job.

Tsh is released under an MIT-style license.
*/
package main

import (
	"fmt"
	"os"

	"github.com/michaelmacinnis/tsh/internal/engine"
	"github.com/michaelmacinnis/tsh/internal/system/options"
	"github.com/michaelmacinnis/tsh/internal/ui"
)

func main() {
	o, err := options.Parse(os.Args[1:])
	if err != nil {
		fmt.Print(options.Usage)
		os.Exit(1)
	}

	e := engine.New(engine.Config{Verbose: o.Verbose})
	e.Monitor()

	if err := ui.Run(e, o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(0)
}
