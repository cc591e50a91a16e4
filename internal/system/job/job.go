// Released under an MIT license. See LICENSE.

// Package job implements the fixed-capacity job table.
//
// The table is shared between the main loop and the signal handlers. Every
// operation, including the accessors on a job handle, requires the control
// signals to be blocked; the guard installed with Guard is consulted on each
// call and a violation panics. A handle returned by FindPID or FindJID is
// only meaningful until the control signals are next unblocked.
package job

import (
	"errors"
	"strings"

	"github.com/michaelmacinnis/tsh/internal/system/sio"
)

// MaxLine bounds the length of a stored command line.
const MaxLine = 1024

// MaxJobs is the default table capacity.
const MaxJobs = 16

var (
	// ErrForeground is returned when a second job would enter the foreground.
	ErrForeground = errors.New("job: a foreground job already exists")

	// ErrFull is returned by Add when no slot is free.
	ErrFull = errors.New("job: table full")

	// ErrInvalid is returned for a non-positive pid or an undefined state.
	ErrInvalid = errors.New("job: invalid pid or state")

	// ErrTransition is returned by SetState for a transition the state
	// machine does not allow.
	ErrTransition = errors.New("job: invalid state transition")
)

// State is the state of a job.
type State int

// Job states. Undefined marks an empty slot.
const (
	Undefined State = iota
	Foreground
	Background
	Stopped
)

// String returns the label used when listing jobs.
func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	}

	return "Undefined"
}

// T (job) is a single slot in a Table.
type T struct {
	cmdline string
	jid     int
	pid     int
	state   State
	table   *Table
}

// Cmdline returns the command line that started the job.
func (j *T) Cmdline() string {
	j.table.check()

	return j.cmdline
}

// JID returns the job ID.
func (j *T) JID() int {
	j.table.check()

	return j.jid
}

// PID returns the process ID, which is also the job's process group ID.
func (j *T) PID() int {
	j.table.check()

	return j.pid
}

// State returns the job's current state.
func (j *T) State() State {
	j.table.check()

	return j.state
}

func (j *T) clear() {
	j.cmdline = ""
	j.jid = 0
	j.pid = 0
	j.state = Undefined
}

// Table is a fixed-capacity registry of jobs keyed by process ID.
type Table struct {
	guard func() bool
	jobs  []T
	next  int
	trace int
}

// New creates a table with room for capacity jobs.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = MaxJobs
	}

	t := &Table{
		jobs:  make([]T, capacity),
		next:  1,
		trace: -1,
	}

	for i := range t.jobs {
		t.jobs[i].table = t
	}

	return t
}

// Add records a new job and returns its job ID.
func (t *Table) Add(pid int, state State, cmdline string) (int, error) {
	t.check()

	if pid < 1 || (state != Foreground && state != Background) {
		return 0, ErrInvalid
	}

	if state == Foreground && t.foreground() != nil {
		return 0, ErrForeground
	}

	slot := t.free()
	if slot == nil {
		return 0, ErrFull
	}

	if len(cmdline) > MaxLine {
		cmdline = cmdline[:MaxLine]
	}

	slot.pid = pid
	slot.jid = t.allocate()
	slot.state = state

	// Copy so the slot never shares memory with the caller's line buffer.
	slot.cmdline = strings.Clone(cmdline)

	if t.trace >= 0 {
		_, _ = sio.Fprintf(t.trace, "Added job [%d] %d %s\n",
			sio.Int(slot.jid), sio.Int(slot.pid), sio.Str(slot.cmdline))
	}

	return slot.jid, nil
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int {
	return len(t.jobs)
}

// Delete removes the job with process ID pid. It returns false, and leaves
// the table untouched, if there is no such job.
func (t *Table) Delete(pid int) bool {
	t.check()

	if pid < 1 {
		return false
	}

	for i := range t.jobs {
		j := &t.jobs[i]
		if j.pid != pid {
			continue
		}

		if t.trace >= 0 {
			_, _ = sio.Fprintf(t.trace, "Deleted job [%d] %d %s\n",
				sio.Int(j.jid), sio.Int(j.pid), sio.Str(j.cmdline))
		}

		j.clear()

		t.next = t.maxJID() + 1

		return true
	}

	return false
}

// FindJID returns the job with job ID jid or nil.
func (t *Table) FindJID(jid int) *T {
	t.check()

	if jid < 1 {
		return nil
	}

	for i := range t.jobs {
		if t.jobs[i].jid == jid {
			return &t.jobs[i]
		}
	}

	return nil
}

// FindPID returns the job with process ID pid or nil.
func (t *Table) FindPID(pid int) *T {
	t.check()

	if pid < 1 {
		return nil
	}

	for i := range t.jobs {
		if t.jobs[i].pid == pid {
			return &t.jobs[i]
		}
	}

	return nil
}

// ForegroundPID returns the process ID of the foreground job or 0.
func (t *Table) ForegroundPID() int {
	t.check()

	if j := t.foreground(); j != nil {
		return j.pid
	}

	return 0
}

// Full reports whether every slot is in use.
func (t *Table) Full() bool {
	t.check()

	return t.free() == nil
}

// Guard installs fn as the check that the control signals are blocked.
func (t *Table) Guard(fn func() bool) {
	t.guard = fn
}

// Len returns the number of live jobs.
func (t *Table) Len() int {
	t.check()

	n := 0
	for i := range t.jobs {
		if t.jobs[i].pid != 0 {
			n++
		}
	}

	return n
}

// List writes one line per live job to fd.
func (t *Table) List(fd int) error {
	t.check()

	for i := range t.jobs {
		j := &t.jobs[i]
		if j.pid == 0 {
			continue
		}

		_, err := sio.Fprintf(fd, "[%d] (%d) %s %s\n",
			sio.Int(j.jid), sio.Int(j.pid),
			sio.Str(j.state.String()), sio.Str(j.cmdline))
		if err != nil {
			return err
		}
	}

	return nil
}

// SetState moves j to state s.
func (t *Table) SetState(j *T, s State) error {
	t.check()

	if j == nil || j.table != t || j.pid == 0 {
		return ErrInvalid
	}

	if j.state == s {
		return nil
	}

	switch s {
	case Foreground:
		if j.state != Stopped && j.state != Background {
			return ErrTransition
		}

		if t.foreground() != nil {
			return ErrForeground
		}

	case Background:
		if j.state != Stopped {
			return ErrTransition
		}

	case Stopped:

	default:
		return ErrTransition
	}

	j.state = s

	return nil
}

// Trace enables diagnostics for additions and deletions on fd. A negative
// fd disables them.
func (t *Table) Trace(fd int) {
	t.trace = fd
}

// allocate returns the next unused job ID. It wraps to 1 once the capacity
// is exceeded. The caller has already found a free slot so at least one ID
// in [1, capacity] is unused.
func (t *Table) allocate() int {
	jid := t.next

	for {
		if jid > len(t.jobs) {
			jid = 1
		}

		if !t.inUse(jid) {
			break
		}

		jid++
	}

	t.next = jid + 1

	return jid
}

func (t *Table) check() {
	if t.guard != nil && !t.guard() {
		panic("job: table accessed without the control signals blocked")
	}
}

func (t *Table) foreground() *T {
	for i := range t.jobs {
		if t.jobs[i].state == Foreground {
			return &t.jobs[i]
		}
	}

	return nil
}

func (t *Table) free() *T {
	for i := range t.jobs {
		if t.jobs[i].pid == 0 {
			return &t.jobs[i]
		}
	}

	return nil
}

func (t *Table) inUse(jid int) bool {
	for i := range t.jobs {
		if t.jobs[i].jid == jid {
			return true
		}
	}

	return false
}

func (t *Table) maxJID() int {
	max := 0

	for i := range t.jobs {
		if t.jobs[i].jid > max {
			max = t.jobs[i].jid
		}
	}

	return max
}
