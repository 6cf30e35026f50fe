package resource

import (
	"context"
	"fmt"
)

// State represents the current state of a resource.
type State int

const (
	Pending State = iota // Evaluation in flight
	Ready                // Data successfully loaded
	Failed               // Evaluation failed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Key identifies a resource within one render.
type Key struct {
	// Scope groups related resources, typically per data source
	// (e.g. "post", "comments").
	Scope string

	// Input is the serialized input of the evaluation (e.g. a post ID).
	// Two reads with the same scope and input share one evaluation.
	Input string
}

// String returns the key as "scope(input)".
func (k Key) String() string {
	return k.Scope + "(" + k.Input + ")"
}

// Handle is the untyped view of a resource used by the renderer.
// It exposes everything needed to wait on and attribute a resource
// without knowing its value type.
type Handle interface {
	// Key returns the resource identity within the render.
	Key() Key

	// State returns the current state.
	State() State

	// Err returns the failure cause, or nil while pending or ready.
	Err() error

	// Done is closed when the resource reaches a terminal state.
	Done() <-chan struct{}

	// Blocking reports whether this resource blocks the initial shell
	// under the partially-blocked render mode.
	Blocking() bool
}

// Resource manages one asynchronous evaluation and its terminal result.
// It is created with New against a render-scoped Tracker and read inside
// suspense content functions via Read.
type Resource[T any] struct {
	key      Key
	blocking bool
	done     chan struct{}

	// Result fields are written exactly once, before done is closed,
	// and only read after done is observed closed or under eval's
	// completion path. No mutex is needed beyond that ordering.
	value T
	err   error
	state State
}

// Option configures a resource at creation time.
type Option func(*options)

type options struct {
	blocking bool
}

// Blocking marks the resource as shell-blocking: under the
// partially-blocked render mode, boundaries that read it are resolved
// in place before the initial shell is flushed.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// New returns the memoized resource for (scope, input), starting fetch
// on a new goroutine if this is the first request for the key within
// the tracker's render. The fetch context is cancelled when the render
// ends or the client disconnects.
//
// Requesting an existing key with a different value type is a caller
// bug; the returned resource fails immediately with ErrKeyConflict.
func New[T any](t *Tracker, scope, input string, fetch func(context.Context) (T, error), opts ...Option) *Resource[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	key := Key{Scope: scope, Input: input}

	t.mu.Lock()
	if existing, ok := t.entries[key]; ok {
		t.mu.Unlock()
		r, ok := existing.(*Resource[T])
		if !ok {
			return failed[T](key, fmt.Errorf("%w: %s requested as %T", ErrKeyConflict, key, *new(T)))
		}
		return r
	}

	r := &Resource[T]{
		key:      key,
		blocking: o.blocking,
		done:     make(chan struct{}),
		state:    Pending,
	}
	t.entries[key] = r
	t.mu.Unlock()

	go r.eval(t.ctx, fetch)
	return r
}

// eval runs the fetch and settles the resource exactly once.
func (r *Resource[T]) eval(ctx context.Context, fetch func(context.Context) (T, error)) {
	defer close(r.done)
	defer func() {
		// A panicking data source must degrade to a Failed resource,
		// never crash the render.
		if rec := recover(); rec != nil {
			r.err = fmt.Errorf("resource %s panicked: %v", r.key, rec)
			r.state = Failed
		}
	}()

	v, err := fetch(ctx)
	if err != nil {
		r.err = err
		r.state = Failed
		return
	}
	r.value = v
	r.state = Ready
}

// failed builds a resource that is already in the Failed state.
func failed[T any](key Key, err error) *Resource[T] {
	r := &Resource[T]{
		key:   key,
		done:  make(chan struct{}),
		err:   err,
		state: Failed,
	}
	close(r.done)
	return r
}

// Key returns the resource identity.
func (r *Resource[T]) Key() Key { return r.key }

// Blocking reports whether the resource was created with Blocking().
func (r *Resource[T]) Blocking() bool { return r.blocking }

// Done is closed once the resource settles.
func (r *Resource[T]) Done() <-chan struct{} { return r.done }

// State returns the current state. It transitions Pending -> Ready or
// Pending -> Failed exactly once and never regresses.
func (r *Resource[T]) State() State {
	select {
	case <-r.done:
		return r.state
	default:
		return Pending
	}
}

// Err returns the failure cause, or nil while pending or ready.
func (r *Resource[T]) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Read records the resource on the scope and returns its value.
// While the resource is pending it returns the zero value and
// ErrPending; the surrounding boundary is re-evaluated once the
// resource settles, at which point Read returns the terminal value or
// failure cause.
func (r *Resource[T]) Read(s *Scope) (T, error) {
	s.observe(r)
	select {
	case <-r.done:
		return r.value, r.err
	default:
		var zero T
		return zero, ErrPending
	}
}
