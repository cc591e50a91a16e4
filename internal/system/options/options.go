// Released under an MIT license. See LICENSE.

// Package options parses tsh's command line.
package options

import (
	"errors"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

// ErrUsage is returned when help was requested or the arguments are invalid.
var ErrUsage = errors.New("usage")

// Usage is tsh's usage message.
const Usage = `tsh - a tiny shell with job control

Usage:
  tsh [-vp]
  tsh -h

Options:
  -h  Print this message.
  -v  Print additional diagnostic information.
  -p  Do not emit a command prompt.
`

// T (options) holds the parsed options.
type T struct {
	// Interactive is true when stdin is a terminal and prompting is
	// enabled; line editing and history are used only then.
	Interactive bool
	Prompt      bool
	Verbose     bool
}

// Parse parses argv, which excludes the program name.
func Parse(argv []string) (*T, error) {
	help := false

	// docopt substitutes os.Args for a nil argv.
	if argv == nil {
		argv = []string{}
	}

	p := &docopt.Parser{
		HelpHandler: func(err error, _ string) {
			help = true
		},
	}

	opts, err := p.ParseArgs(Usage, argv, "")
	if err != nil || help {
		return nil, ErrUsage
	}

	quiet, _ := opts.Bool("-p")
	verbose, _ := opts.Bool("-v")

	return &T{
		Interactive: !quiet && isatty.IsTerminal(os.Stdin.Fd()),
		Prompt:      !quiet,
		Verbose:     verbose,
	}, nil
}
