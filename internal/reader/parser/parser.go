// Released under an MIT license. See LICENSE.

// Package parser turns a command line into a Command.
package parser

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Parse errors.
var (
	ErrAmbiguousRedirection = errors.New("Ambiguous I/O redirection") //nolint:stylecheck
	ErrMissingFile          = errors.New("must provide file name for redirection")
	ErrUnmatchedQuote       = errors.New("unmatched quote")
)

// Builtin identifies a command the shell runs itself.
type Builtin int

// Builtin commands.
const (
	None Builtin = iota
	Quit
	Jobs
	Bg
	Fg
)

// Kind classifies a parsed line.
type Kind int

// Line kinds.
const (
	Empty Kind = iota
	Foreground
	Background
)

// Command is a parsed command line.
type Command struct {
	Argv    []string
	Builtin Builtin
	Infile  string
	Kind    Kind
	Outfile string
}

// Parse splits line into arguments and redirections. A line whose last
// argument begins with & is a background request; the & argument is
// dropped.
func Parse(line string) (*Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, unmatched(err)
	}

	c := &Command{}

	target := (*string)(nil)

	for _, w := range words {
		if target != nil {
			*target = w
			target = nil

			continue
		}

		if w == "" || (w[0] != '<' && w[0] != '>') {
			c.Argv = append(c.Argv, w)

			continue
		}

		t := &c.Infile
		if w[0] == '>' {
			t = &c.Outfile
		}

		if *t != "" {
			return nil, ErrAmbiguousRedirection
		}

		if name := w[1:]; name != "" {
			if name[0] == '<' || name[0] == '>' {
				return nil, ErrAmbiguousRedirection
			}

			*t = name
		} else {
			target = t
		}
	}

	if target != nil {
		return nil, ErrMissingFile
	}

	if len(c.Argv) == 0 {
		c.Kind = Empty

		return c, nil
	}

	c.Builtin = classify(c.Argv[0])

	last := len(c.Argv) - 1
	if strings.HasPrefix(c.Argv[last], "&") {
		c.Argv = c.Argv[:last]
		c.Kind = Background
	} else {
		c.Kind = Foreground
	}

	if len(c.Argv) == 0 {
		c.Kind = Empty
	}

	return c, nil
}

func classify(name string) Builtin {
	switch name {
	case "quit":
		return Quit
	case "jobs":
		return Jobs
	case "bg":
		return Bg
	case "fg":
		return Fg
	}

	return None
}

func unmatched(err error) error {
	switch {
	case errors.Is(err, shellquote.UnterminatedSingleQuoteError),
		errors.Is(err, shellquote.UnterminatedDoubleQuoteError),
		errors.Is(err, shellquote.UnterminatedEscapeError):
		return ErrUnmatchedQuote
	}

	return err
}
