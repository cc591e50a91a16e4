package options

import (
	"errors"
	"testing"
)

func TestFlags(t *testing.T) {
	for _, tc := range []struct {
		argv    []string
		prompt  bool
		verbose bool
	}{
		{nil, true, false},
		{[]string{"-v"}, true, true},
		{[]string{"-p"}, false, false},
		{[]string{"-vp"}, false, true},
		{[]string{"-p", "-v"}, false, true},
	} {
		o, err := Parse(tc.argv)
		if err != nil {
			t.Fatalf("%v: %v", tc.argv, err)
		}

		if o.Prompt != tc.prompt || o.Verbose != tc.verbose {
			t.Fatalf("%v: got %+v", tc.argv, o)
		}

		if !tc.prompt && o.Interactive {
			t.Fatalf("%v: -p must disable interactive mode", tc.argv)
		}
	}
}

func TestUsage(t *testing.T) {
	for _, argv := range [][]string{
		{"-h"},
		{"-x"},
		{"extra"},
	} {
		if _, err := Parse(argv); !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: expected ErrUsage, got %v", argv, err)
		}
	}
}
