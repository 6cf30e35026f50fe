package resource

import (
	"context"
	"sync"
)

// Tracker memoizes resource evaluations for exactly one render.
// It is never shared across concurrent renders; a new render starts
// with an empty tracker and recomputes every resource from scratch.
type Tracker struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[Key]any // Key -> *Resource[T]
}

// NewTracker creates a tracker whose evaluations run under a context
// derived from parent. Cancelling parent (e.g. the client disconnects)
// cancels every in-flight evaluation.
func NewTracker(parent context.Context) *Tracker {
	ctx, cancel := context.WithCancel(parent)
	return &Tracker{
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[Key]any),
	}
}

// Context returns the context resource evaluations run under.
func (t *Tracker) Context() context.Context { return t.ctx }

// Len returns the number of distinct resources requested so far.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Close cancels all still-pending evaluations and releases the
// memoization table. The render is over; nothing is retried.
func (t *Tracker) Close() {
	t.cancel()
	t.mu.Lock()
	t.entries = make(map[Key]any)
	t.mu.Unlock()
}
