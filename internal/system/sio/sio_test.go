package sio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestDirectives(t *testing.T) {
	h := setup(t)

	h.printf("Job [%d] (%d) terminated by signal %d\n",
		"Job [1] (4242) terminated by signal 2\n",
		Int(1), Int(4242), Int(2),
	)

	h.printf("%i %u %x %lx %zd\n",
		"-7 7 ff ffffffffffffffff 0\n",
		Int(-7), Uint(7), Int(255), Int(-1), Int(0),
	)

	h.printf("%c%s%%\n",
		"[tsh> %\n",
		Char('['), Str("tsh> "),
	)
}

func TestErrors(t *testing.T) {
	h := setup(t)

	for _, tc := range []struct {
		format string
		args   []Value
		output string
	}{
		{"abc %q", []Value{Int(1)}, "abc "},
		{"missing %d", nil, "missing "},
		{"mismatched %s", []Value{Int(1)}, "mismatched "},
		{"mismatched %d", []Value{Str("x")}, "mismatched "},
		{"trailing %", nil, "trailing "},
	} {
		_, err := Fprintf(h.w, tc.format, tc.args...)
		if !errors.Is(err, ErrFormat) {
			t.Fatalf("%q: expected ErrFormat, got %v", tc.format, err)
		}

		h.expect(tc.output)
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("SIO_FATAL") == "1" {
		_, _ = Printf("before %d\n", Int(1))
		Fatal("fatal\n")

		return
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "SIO_FATAL=1")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var ee *exec.ExitError
	if err := cmd.Run(); !errors.As(err, &ee) || ee.ExitCode() != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}

	if stdout.String() != "before 1\n" || stderr.String() != "fatal\n" {
		t.Fatalf("got stdout %q, stderr %q", stdout.String(), stderr.String())
	}
}

func TestItoa(t *testing.T) {
	buf := make([]byte, 70)

	for _, tc := range []struct {
		v    int64
		base int
		want string
	}{
		{0, 10, "0"},
		{12345, 10, "12345"},
		{-12345, 10, "-12345"},
		{255, 16, "ff"},
		{5, 2, "101"},
		{math.MaxInt64, 10, "9223372036854775807"},
		{math.MinInt64, 10, "-9223372036854775808"},
	} {
		n := Itoa(buf, tc.v, tc.base)
		if got := string(buf[:n]); got != tc.want {
			t.Fatalf("Itoa(%d, %d) = %q, want %q", tc.v, tc.base, got, tc.want)
		}
	}
}

func TestLongString(t *testing.T) {
	h := setup(t)

	s := strings.Repeat("0123456789", 100)

	h.printf("%s|%s\n", s+"|"+s+"\n", Str(s), Str(s))
}

func TestPuts(t *testing.T) {
	h := setup(t)

	n, err := Puts(h.w, "Tried to create too many jobs\n")
	if err != nil || n != 30 {
		t.Fatalf("Puts returned %d, %v", n, err)
	}

	h.expect("Tried to create too many jobs\n")
}

type harness struct {
	*testing.T

	r *os.File
	w int
}

func setup(t *testing.T) *harness {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	return &harness{T: t, r: r, w: int(w.Fd())}
}

func (h *harness) expect(want string) {
	h.Helper()

	got := make([]byte, len(want))
	if len(want) > 0 {
		if _, err := io.ReadFull(h.r, got); err != nil {
			h.Fatal(err)
		}
	}

	if string(got) != want {
		h.Fatalf("expected %q, got %q", want, got)
	}
}

func (h *harness) printf(format, want string, args ...Value) {
	h.Helper()

	n, err := Fprintf(h.w, format, args...)
	if err != nil {
		h.Fatalf("%q: %v", format, err)
	}

	if n != len(want) {
		h.Fatalf("%q: wrote %d bytes, want %d", format, n, len(want))
	}

	h.expect(want)
}
