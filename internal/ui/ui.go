// Released under an MIT license. See LICENSE.

// Package ui provides tsh's command-line interface.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/michaelmacinnis/tsh/internal/system/cache"
	"github.com/michaelmacinnis/tsh/internal/system/history"
	"github.com/michaelmacinnis/tsh/internal/system/options"
	"github.com/peterh/liner"
)

// Prompt is printed before each command line is read.
const Prompt = "tsh> "

// Evaluator is the interface for things that want to process command lines.
type Evaluator interface {
	Evaluate(line string)
}

// Run reads command lines and sends them to the Evaluator until the end of
// input.
func Run(e Evaluator, o *options.T) error {
	if o.Interactive {
		return edit(e)
	}

	return Read(e, os.Stdin, os.Stdout, o.Prompt)
}

// Read sends each line read from r to e. When prompt is true the prompt is
// written to w before each line.
func Read(e Evaluator, r io.Reader, w io.Writer, prompt bool) error {
	br := bufio.NewReader(r)

	for {
		if prompt {
			fmt.Fprint(w, Prompt)
		}

		line, err := br.ReadString('\n')
		if line != "" {
			e.Evaluate(strings.TrimSuffix(line, "\n"))
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}
	}

	fmt.Fprintln(w)

	return nil
}

var builtins = []string{"bg", "fg", "jobs", "quit"}

// complete completes the command name at the start of line.
func complete(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}

	cs := []string{}

	for _, b := range builtins {
		if strings.HasPrefix(b, line) {
			cs = append(cs, b)
		}
	}

	return append(cs, cache.Complete(os.Getenv("PATH"), line)...)
}

func edit(e Evaluator) error {
	cooked, err := liner.TerminalMode()
	if err != nil {
		return err
	}

	cli := liner.NewLiner()
	defer cli.Close()

	uncooked, err := liner.TerminalMode()
	if err != nil {
		return err
	}

	if err := history.Load(cli.ReadHistory); err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
	}

	cli.SetCtrlCAborts(true)
	cli.SetCompleter(complete)

	go cache.Populate(os.Getenv("PATH"))

	for {
		if err := uncooked.ApplyMode(); err != nil {
			return err
		}

		line, err := cli.Prompt(Prompt)

		if merr := cooked.ApplyMode(); merr != nil {
			return merr
		}

		switch {
		case err == nil:
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Println()

			return nil
		default:
			return err
		}

		if strings.TrimSpace(line) != "" {
			cli.AppendHistory(line)

			// Saved now since quit and SIGQUIT end the process here.
			if err := history.Save(cli.WriteHistory); err != nil {
				fmt.Fprintf(os.Stderr, "history: %v\n", err)
			}
		}

		e.Evaluate(line)
	}
}
