// Released under an MIT license. See LICENSE.

// Package signals implements the gate that serializes signal handlers
// against the main loop.
//
// The Go runtime owns the real signal mask, so the gate keeps its own: a
// signal raised on the gate is recorded as pending and its handler runs, on
// the gate's delivery goroutine, only once the signal is no longer blocked.
// Pending signals of the same kind collapse into a single delivery. Main
// loop code that blocks a signal waits for any running handler to finish
// first, which gives the same guarantee as a handler preempting the thread
// it interrupts: the two never touch shared state at the same time.
package signals

import (
	"sync"
)

// Set is a set of signals.
type Set uint8

// Signals understood by the gate.
const (
	Child Set = 1 << iota
	Interrupt
	Stop
	Quit

	// Control is the set that must be blocked around job table access.
	Control = Child | Interrupt | Stop

	all = Control | Quit
)

// Handler is the code run when a signal is delivered.
type Handler func(f *Frame)

// Gate holds the blocked mask, the pending set and the installed handlers.
type Gate struct {
	changed *sync.Cond
	mu      sync.Mutex

	closed    bool
	delivered uint64
	handlers  map[Set]Handler
	mask      Set
	pending   Set
	running   bool
}

// New creates a gate and starts its delivery goroutine.
func New() *Gate {
	g := &Gate{handlers: map[Set]Handler{}}
	g.changed = sync.NewCond(&g.mu)

	go g.deliver()

	return g
}

// Block adds s to the blocked mask and returns the previous mask.
func (g *Gate) Block(s Set) Set {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quiesce()

	prev := g.mask
	g.mask |= s

	return prev
}

// Blocked reports whether every signal in s is blocked.
func (g *Gate) Blocked(s Set) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.mask&s == s
}

// Close stops delivery. Pending signals are discarded.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	g.changed.Broadcast()
}

// Do runs fn with s blocked and restores the previous mask when fn returns
// or panics.
func (g *Gate) Do(s Set, fn func()) {
	defer g.SetMask(g.Block(s))

	fn()
}

// Handle installs h for the single signal s. A nil handler discards
// deliveries of s.
func (g *Gate) Handle(s Set, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.handlers[s] = h
}

// Mask returns the current blocked mask.
func (g *Gate) Mask() Set {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.mask
}

// Raise marks the signals in s as pending.
func (g *Gate) Raise(s Set) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending |= s & all
	g.changed.Broadcast()
}

// SetMask installs m as the blocked mask and returns the previous mask.
// Restoring the value returned by Block, rather than unblocking, keeps
// signals blocked that an enclosing caller still needs blocked.
func (g *Gate) SetMask(m Set) Set {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quiesce()

	prev := g.mask
	g.mask = m
	g.changed.Broadcast()

	return prev
}

// Suspend atomically replaces the blocked mask with m and waits until at
// least one handler has run. The previous mask is restored before Suspend
// returns. A handler that becomes deliverable between the caller's last
// check and the call to Suspend cannot be missed.
func (g *Gate) Suspend(m Set) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quiesce()

	prev := g.mask
	seen := g.delivered

	g.mask = m
	g.changed.Broadcast()

	for !g.closed && (g.delivered == seen || g.running) {
		g.changed.Wait()
	}

	g.mask = prev
}

func (g *Gate) deliver() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		s := g.next()
		for s == 0 && !g.closed {
			g.changed.Wait()
			s = g.next()
		}

		if g.closed {
			return
		}

		g.pending &^= s

		h := g.handlers[s]
		prev := g.mask

		g.mask |= s
		g.running = true
		g.mu.Unlock()

		if h != nil {
			h(&Frame{g: g})
		}

		g.mu.Lock()
		g.mask = prev
		g.running = false
		g.delivered++
		g.changed.Broadcast()
	}
}

// next returns the lowest pending signal that is not blocked.
func (g *Gate) next() Set {
	ready := g.pending &^ g.mask

	for s := Child; s <= Quit; s <<= 1 {
		if ready&s != 0 {
			return s
		}
	}

	return 0
}

// quiesce waits until no handler is running. The caller holds g.mu.
func (g *Gate) quiesce() {
	for g.running && !g.closed {
		g.changed.Wait()
	}
}

// Frame is the restricted context passed to a handler. Its mask operations
// act on the gate without waiting on the handler that is running them.
type Frame struct {
	g *Gate
}

// Block adds s to the blocked mask and returns the previous mask.
func (f *Frame) Block(s Set) Set {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()

	prev := f.g.mask
	f.g.mask |= s

	return prev
}

// SetMask installs m as the blocked mask and returns the previous mask.
func (f *Frame) SetMask(m Set) Set {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()

	prev := f.g.mask
	f.g.mask = m

	return prev
}
