package render

import (
	"fmt"
	"strconv"
	"sync"
)

// boundaryState is the resolution state of a registered boundary.
type boundaryState int

const (
	boundaryUnresolved boundaryState = iota
	boundaryResolved
	boundaryFailed
)

// registry is the render-scoped table of boundary identifiers. It
// assigns monotonically increasing ids as boundaries are first
// encountered during traversal, supplies the placeholder markers
// embedded in the shell, and guards each boundary against double
// resolution. Entries are discarded when the render completes.
type registry struct {
	mu      sync.Mutex
	next    int
	entries map[int]boundaryState
}

func newRegistry() *registry {
	return &registry{entries: make(map[int]boundaryState)}
}

// register assigns the next boundary id.
func (r *registry) register() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.entries[id] = boundaryUnresolved
	return id
}

// settle transitions a boundary to resolved or failed, exactly once.
func (r *registry) settle(id int, failed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.entries[id]
	if !ok {
		return &FatalError{Cause: fmt.Errorf("unknown boundary %d", id)}
	}
	if state != boundaryUnresolved {
		return &FatalError{Cause: ErrBoundaryResolved}
	}
	if failed {
		r.entries[id] = boundaryFailed
	} else {
		r.entries[id] = boundaryResolved
	}
	return nil
}

// pending returns the number of boundaries not yet settled.
func (r *registry) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, state := range r.entries {
		if state == boundaryUnresolved {
			n++
		}
	}
	return n
}

// registered returns the number of boundaries assigned so far.
func (r *registry) registered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// discard drops all entries. Called when the render completes; the
// registry is render-scoped process state, never global.
func (r *registry) discard() {
	r.mu.Lock()
	r.entries = make(map[int]boundaryState)
	r.mu.Unlock()
}

// boundaryToken is the stable, render-unique token for a boundary id.
func boundaryToken(id int) string {
	return strconv.Itoa(id)
}

// openMarker is the comment marking the start of a boundary's
// placeholder region in the shell.
func openMarker(id int) string {
	return "<!--ebb-o:" + boundaryToken(id) + "-->"
}

// closeMarker is the comment marking the end of a boundary's
// placeholder region in the shell.
func closeMarker(id int) string {
	return "<!--ebb-c:" + boundaryToken(id) + "-->"
}
