// Released under an MIT license. See LICENSE.

// Package sio provides formatted output that is safe to use from signal
// handler context. Nothing in this package allocates on the output path or
// calls into fmt; bytes are staged in a fixed buffer and written directly to
// a file descriptor.
//
// The supported directives are %d, %i, %u, %x, %c, %s and %%. The size
// modifiers l and z are accepted and ignored.
package sio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrFormat is returned for an unknown directive or a missing or
// mismatched argument.
var ErrFormat = errors.New("sio: bad format")

const (
	kindInt = iota + 1
	kindUint
	kindStr
	kindChar
)

// Value is a single formatting argument.
type Value struct {
	kind int
	i    int64
	u    uint64
	s    string
}

// Char wraps a byte for %c.
func Char(c byte) Value {
	return Value{kind: kindChar, u: uint64(c)}
}

// Int wraps a signed integer for %d, %i or %x.
func Int(v int) Value {
	return Value{kind: kindInt, i: int64(v)}
}

// Str wraps a string for %s.
func Str(s string) Value {
	return Value{kind: kindStr, s: s}
}

// Uint wraps an unsigned integer for %u or %x.
func Uint(v uint) Value {
	return Value{kind: kindUint, u: uint64(v)}
}

// Fatal writes s to standard error and terminates the process with status 1
// without running deferred functions.
func Fatal(s string) {
	_, _ = Write(unix.Stderr, []byte(s))
	unix.Exit(1)
}

// Fprintf formats according to format and writes to fd. It returns the
// number of bytes written.
func Fprintf(fd int, format string, args ...Value) (int, error) {
	var (
		b      buffer
		digits [24]byte
	)

	b.fd = fd

	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.putc(c)

			continue
		}

		i++
		for i < len(format) && (format[i] == 'l' || format[i] == 'z') {
			i++
		}

		if i == len(format) {
			return b.fail()
		}

		c = format[i]
		if c == '%' {
			b.putc(c)

			continue
		}

		if next == len(args) {
			return b.fail()
		}

		v := args[next]
		next++

		switch c {
		case 'c':
			if v.kind != kindChar {
				return b.fail()
			}

			b.putc(byte(v.u))

		case 's':
			if v.kind != kindStr {
				return b.fail()
			}

			b.puts(v.s)

		case 'd', 'i':
			if v.kind != kindInt {
				return b.fail()
			}

			n := Itoa(digits[:], v.i, 10)
			b.put(digits[:n])

		case 'u':
			if v.kind != kindUint {
				return b.fail()
			}

			n := Utoa(digits[:], v.u, 10)
			b.put(digits[:n])

		case 'x':
			u := v.u
			switch v.kind {
			case kindInt:
				u = uint64(v.i)
			case kindUint:
			default:
				return b.fail()
			}

			n := Utoa(digits[:], u, 16)
			b.put(digits[:n])

		default:
			return b.fail()
		}

		if b.err != nil {
			return b.total, b.err
		}
	}

	b.flush()

	return b.total, b.err
}

// Itoa writes v in base b (2 to 16) to buf and returns the number of bytes
// used. The buffer must hold at least 65 bytes for base 2 and 21 for base 10.
func Itoa(buf []byte, v int64, b int) int {
	if v >= 0 {
		return Utoa(buf, uint64(v), b)
	}

	buf[0] = '-'

	// Negating the most negative value overflows back to itself; the
	// unsigned conversion of that bit pattern is still the magnitude.
	return 1 + Utoa(buf[1:], uint64(-v), b)
}

// Printf is Fprintf to standard output.
func Printf(format string, args ...Value) (int, error) {
	return Fprintf(unix.Stdout, format, args...)
}

// Puts writes s to fd.
func Puts(fd int, s string) (int, error) {
	var b buffer

	b.fd = fd
	b.puts(s)
	b.flush()

	return b.total, b.err
}

// Utoa writes v in base b (2 to 16) to buf and returns the number of bytes
// used.
func Utoa(buf []byte, v uint64, b int) int {
	const digits = "0123456789abcdef"

	n := 0

	for {
		buf[n] = digits[v%uint64(b)]
		n++

		v /= uint64(b)
		if v == 0 {
			break
		}
	}

	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return n
}

// Write writes all of p to fd, retrying short writes and interrupted calls.
func Write(fd int, p []byte) (int, error) {
	total := 0

	for total < len(p) {
		n, err := unix.Write(fd, p[total:])
		if err == unix.EINTR { //nolint:errorlint
			continue
		}

		if err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}

const bufferSize = 256

type buffer struct {
	fd    int
	err   error
	n     int
	total int
	data  [bufferSize]byte
}

func (b *buffer) fail() (int, error) {
	b.flush()

	if b.err == nil {
		b.err = ErrFormat
	}

	return b.total, b.err
}

func (b *buffer) flush() {
	if b.n == 0 || b.err != nil {
		return
	}

	n, err := Write(b.fd, b.data[:b.n])

	b.total += n
	b.err = err
	b.n = 0
}

func (b *buffer) put(p []byte) {
	for _, c := range p {
		b.putc(c)
	}
}

func (b *buffer) putc(c byte) {
	if b.err != nil {
		return
	}

	if b.n == len(b.data) {
		b.flush()
	}

	b.data[b.n] = c
	b.n++
}

func (b *buffer) puts(s string) {
	for i := 0; i < len(s); i++ {
		b.putc(s[i])
	}
}
