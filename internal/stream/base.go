package stream

import (
	"io"
	"sync"

	sperr "streampump/internal/errors"
	"streampump/internal/runloop"
)

// base holds the state common to Input and Output.
type base struct {
	name   string
	closer io.Closer

	mu       sync.Mutex
	status   Status
	err      error
	loop     *runloop.Loop
	mode     runloop.Mode
	delegate Delegate
}

func (b *base) Name() string { return b.name }

func (b *base) Schedule(loop *runloop.Loop, mode runloop.Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loop != nil || b.status == StatusClosed {
		return
	}
	b.loop = loop
	b.mode = mode
	loop.AddSource()
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *base) SetDelegate(d Delegate) {
	b.mu.Lock()
	b.delegate = d
	b.mu.Unlock()
}

// openLocked moves the stream to StatusOpen.
func (b *base) openLocked() error {
	switch b.status {
	case StatusOpen:
		return nil
	case StatusClosed:
		return sperr.WrapStream(b.name, "open", sperr.ErrStreamClosed)
	case StatusNotOpen:
	default:
		return sperr.WrapStream(b.name, "open", sperr.ErrStreamNotOpen)
	}
	if b.loop == nil {
		return sperr.WrapStream(b.name, "open", sperr.ErrNotScheduled)
	}
	b.status = StatusOpen
	return nil
}

// closeLocked moves the stream to StatusClosed and reports whether this
// call did the transition.
func (b *base) closeLocked() bool {
	if b.status == StatusClosed {
		return false
	}
	b.status = StatusClosed
	if b.loop != nil {
		b.loop.RemoveSource()
	}
	return true
}

func (b *base) closeUnderlying() error {
	if b.closer == nil {
		return nil
	}
	if err := b.closer.Close(); err != nil && !sperr.IsClosed(err) {
		return sperr.WrapStream(b.name, "close", err)
	}
	return nil
}

// failLocked records err and moves the stream to StatusError.
func (b *base) failLocked(err error) {
	if b.status == StatusClosed {
		return
	}
	b.status = StatusError
	b.err = err
}

// post delivers ev to the delegate on the loop.  Events are dropped once
// the stream is closed.  self is the outer stream handed to the
// delegate.
func (b *base) post(self Evented, ev Event, before func()) {
	b.mu.Lock()
	loop, mode := b.loop, b.mode
	b.mu.Unlock()
	if loop == nil {
		return
	}
	loop.Perform(mode, func() {
		if before != nil {
			before()
		}
		b.mu.Lock()
		closed := b.status == StatusClosed
		d := b.delegate
		b.mu.Unlock()
		if closed || d == nil {
			return
		}
		d.HandleEvent(self, ev)
	})
}

// onceCloser closes c at most once and remembers the result.
type onceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}
