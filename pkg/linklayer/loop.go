package linklayer

import "context"

// Loop is a serialized completion dispatcher. Every asynchronous
// operation posts its completion here, and Run invokes them one at a
// time on a single goroutine, so handlers never race with each other.
type Loop struct {
	completions chan func()
}

// NewLoop creates an idle dispatch loop.
func NewLoop() *Loop {
	return &Loop{
		completions: make(chan func(), 128),
	}
}

// Run dispatches completions until the context is cancelled. It is the
// only goroutine that invokes handlers.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.completions:
			fn()
		}
	}
}

// Post schedules fn for execution on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.completions <- fn
}
