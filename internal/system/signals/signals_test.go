package signals

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestBlockedSignalIsDeferred(t *testing.T) {
	g := setup(t)

	ran := make(chan struct{}, 1)
	g.Handle(Child, func(_ *Frame) { ran <- struct{}{} })

	prev := g.Block(Control)

	g.Raise(Child)
	g.Raise(Child)

	select {
	case <-ran:
		t.Fatal("handler ran while blocked")
	case <-time.After(50 * time.Millisecond):
	}

	g.SetMask(prev)

	expect(t, ran)

	// Two raises while blocked collapse into one delivery.
	select {
	case <-ran:
		t.Fatal("pending signals were not collapsed")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDoRestoresOnPanic(t *testing.T) {
	g := setup(t)

	func() {
		defer func() { _ = recover() }()

		g.Do(Control, func() {
			if !g.Blocked(Control) {
				t.Error("control set not blocked inside Do")
			}

			panic("boom")
		})
	}()

	if g.Mask() != 0 {
		t.Fatalf("mask not restored: %b", g.Mask())
	}
}

func TestFrameBlock(t *testing.T) {
	g := setup(t)

	done := make(chan Set, 1)
	g.Handle(Interrupt, func(f *Frame) {
		prev := f.Block(Control)
		inside := g.Mask()
		f.SetMask(prev)
		done <- inside
	})

	g.Raise(Interrupt)

	select {
	case m := <-done:
		if m&Control != Control {
			t.Fatalf("expected control set blocked in handler, mask %b", m)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}

	// Block waits for the handler to return before reading the mask.
	if m := g.Block(0); m != 0 {
		t.Fatalf("mask not restored after handler: %b", m)
	}
}

func TestNestedBlockRestoresPrevious(t *testing.T) {
	g := setup(t)

	outer := g.Block(Control)
	inner := g.Block(Child)

	g.SetMask(inner)

	if !g.Blocked(Control) {
		t.Fatal("inner restore unblocked signals the outer caller still holds")
	}

	g.SetMask(outer)

	if g.Blocked(Child) {
		t.Fatal("outer restore left signals blocked")
	}
}

func TestSerializedWithHandlers(t *testing.T) {
	g := setup(t)

	var inside int32

	g.Handle(Child, func(_ *Frame) {
		if !atomic.CompareAndSwapInt32(&inside, 0, 1) {
			t.Error("handler overlapped a blocked section")
		}
		time.Sleep(time.Millisecond)
		atomic.StoreInt32(&inside, 0)
	})

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				g.Raise(Child)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		g.Do(Control, func() {
			if !atomic.CompareAndSwapInt32(&inside, 0, 1) {
				t.Error("blocked section overlapped a handler")
			}
			atomic.StoreInt32(&inside, 0)
		})
	}

	close(stop)
}

func TestSuspendDoesNotMissSignal(t *testing.T) {
	g := setup(t)

	var state int32 = 1

	g.Handle(Child, func(_ *Frame) { atomic.StoreInt32(&state, 0) })

	prev := g.Block(Control)

	// Raised after the check below would have been made but before the
	// wait starts; the handler must still wake Suspend.
	g.Raise(Child)

	done := make(chan struct{})
	go func() {
		for atomic.LoadInt32(&state) != 0 {
			g.Suspend(prev &^ Control)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Suspend missed a pending signal")
	}

	if !g.Blocked(Control) {
		t.Fatal("Suspend did not restore the mask")
	}

	g.SetMask(prev)
}

func TestUnhandledSignalIsDiscarded(t *testing.T) {
	g := setup(t)

	prev := g.Block(all)

	g.Raise(Stop)

	done := make(chan struct{})
	go func() {
		g.Suspend(prev)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery without a handler did not complete")
	}
}

func expect(t *testing.T, c chan struct{}) {
	t.Helper()

	select {
	case <-c:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func setup(t *testing.T) *Gate {
	t.Helper()

	g := New()
	t.Cleanup(g.Close)

	return g
}
