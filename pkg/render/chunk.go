package render

import (
	"sync"
)

// Chunk is one atomically-emitted fragment of the output stream.
type Chunk struct {
	// BoundaryID correlates a deferred fragment with its placeholder
	// marker in the shell. It is empty for the shell itself and for
	// in-order segments.
	BoundaryID string

	// Bytes is the fragment markup. It is never mutated after emission.
	Bytes []byte
}

// ChunkSink receives the ordered chunk sequence of one render.
// Implementations must treat each Emit call as atomic; the emitter
// guarantees calls are serialized.
type ChunkSink interface {
	Emit(Chunk) error
}

// SinkFunc adapts a function to the ChunkSink interface.
type SinkFunc func(Chunk) error

// Emit implements ChunkSink.
func (f SinkFunc) Emit(c Chunk) error { return f(c) }

// CollectSink records chunks in memory. It is primarily useful in
// tests and for capturing a complete async-mode document.
type CollectSink struct {
	mu     sync.Mutex
	chunks []Chunk
}

// Emit implements ChunkSink.
func (s *CollectSink) Emit(c Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, len(c.Bytes))
	copy(b, c.Bytes)
	s.chunks = append(s.chunks, Chunk{BoundaryID: c.BoundaryID, Bytes: b})
	return nil
}

// Chunks returns the chunks emitted so far, in emission order.
func (s *CollectSink) Chunks() []Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Concat returns the concatenation of all emitted chunk bytes.
func (s *CollectSink) Concat() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []byte
	for _, c := range s.chunks {
		out = append(out, c.Bytes...)
	}
	return out
}

// emitter serializes concurrent chunk emissions into a single ordered
// sequence and enforces at-most-once emission per boundary id. It is
// scoped to exactly one render.
type emitter struct {
	mu      sync.Mutex
	sink    ChunkSink
	emitted map[string]bool
	err     error
	onFail  func(error)
}

func newEmitter(sink ChunkSink, onFail func(error)) *emitter {
	return &emitter{
		sink:    sink,
		emitted: make(map[string]bool),
		onFail:  onFail,
	}
}

// emit delivers one chunk to the sink. A boundary id may be emitted at
// most once; a second attempt is a structural invariant violation.
// Once the sink reports an error (downstream closed), every later emit
// reports the same error so in-flight workers stop promptly.
func (e *emitter) emit(id string, b []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	if id != "" {
		if e.emitted[id] {
			return &FatalError{Cause: ErrBoundaryResolved}
		}
		e.emitted[id] = true
	}

	if err := e.sink.Emit(Chunk{BoundaryID: id, Bytes: b}); err != nil {
		e.err = err
		if e.onFail != nil {
			e.onFail(err)
		}
		return err
	}
	return nil
}

// failed returns the sink error, if any.
func (e *emitter) failed() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
