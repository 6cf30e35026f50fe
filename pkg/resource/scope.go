package resource

import (
	"context"
	"sync"
)

// Scope records the resources read during one evaluation of a suspense
// content function. The renderer creates a fresh Scope per evaluation
// attempt, inspects which reads were still pending, waits for them, and
// re-evaluates; a boundary owns the resources its first evaluation
// observes.
type Scope struct {
	ctx context.Context

	mu       sync.Mutex
	seen     map[Key]struct{}
	observed []Handle
}

// NewScope creates a scope bound to the given render context.
func NewScope(ctx context.Context) *Scope {
	return &Scope{
		ctx:  ctx,
		seen: make(map[Key]struct{}),
	}
}

// Context returns the render context the scope belongs to.
func (s *Scope) Context() context.Context { return s.ctx }

// observe records a read, deduplicated by key, in insertion order.
func (s *Scope) observe(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[h.Key()]; ok {
		return
	}
	s.seen[h.Key()] = struct{}{}
	s.observed = append(s.observed, h)
}

// Observed returns all resources read through this scope, in the order
// they were first read.
func (s *Scope) Observed() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handle, len(s.observed))
	copy(out, s.observed)
	return out
}

// Pending returns the observed resources that have not settled yet.
func (s *Scope) Pending() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Handle
	for _, h := range s.observed {
		if h.State() == Pending {
			out = append(out, h)
		}
	}
	return out
}

// Failed returns one Error per failed observed resource, in insertion
// order.
func (s *Scope) Failed() []*Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Error
	for _, h := range s.observed {
		if h.State() == Failed {
			out = append(out, &Error{Key: h.Key(), Cause: h.Err()})
		}
	}
	return out
}

// Blocking reports whether any observed resource is shell-blocking.
func (s *Scope) Blocking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.observed {
		if h.Blocking() {
			return true
		}
	}
	return false
}
