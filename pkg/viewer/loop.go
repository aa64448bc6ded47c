package viewer

import (
	"context"
	"sync"
)

// Loop serializes all viewer mutations onto one goroutine. Worker
// goroutines hand their results back with Post; the owning goroutine runs
// them with Run, Wait or Step.
type Loop struct {
	events chan func()
	done   chan struct{}
	once   sync.Once
}

// NewLoop creates a loop with room for buffer pending events.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It blocks while the queue is
// full and returns false once the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes events until ctx is cancelled or the loop is stopped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.events:
			fn()
		}
	}
}

// Wait blocks until one event is available and runs it.
func (l *Loop) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case fn := <-l.events:
		fn()
		return nil
	}
}

// Step runs one pending event without blocking. It reports whether an
// event was run.
func (l *Loop) Step() bool {
	select {
	case fn := <-l.events:
		fn()
		return true
	default:
		return false
	}
}

// Stop makes Run return and rejects further posts. Events already queued
// are discarded.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}
