// Package lifecycle carries the single cooperative stop signal shared by
// every long-running loop in the search engine.
package lifecycle

import (
	"sync"
	"sync/atomic"
)

// StopToken is the sole cross-thread control-flow signal. Loops poll
// ShouldRun between work items and select on Done while suspended.
type StopToken struct {
	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

func NewStopToken() *StopToken {
	return &StopToken{done: make(chan struct{})}
}

// ShouldRun reports whether loops should keep going.
func (t *StopToken) ShouldRun() bool {
	return !t.stopped.Load()
}

// Stop raises the flag and releases every pending Done select. Safe to call
// more than once.
func (t *StopToken) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() { close(t.done) })
}

// Done returns a channel closed when Stop is called.
func (t *StopToken) Done() <-chan struct{} {
	return t.done
}
