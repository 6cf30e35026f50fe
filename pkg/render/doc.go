// Package render turns view trees into HTML, either as a single string
// or as a stream of chunks delivered under one of four modes.
//
// Out-of-order streams the page shell immediately with fallbacks in
// place of unsettled suspense boundaries, then emits one chunk per
// boundary as it settles; a small inline runtime splices each chunk
// into its marked region. In-order emits document-order segments,
// pausing the stream at each boundary until it settles. Async resolves
// everything and emits one complete document, or aborts without
// emitting anything if a failure escapes every error boundary.
// Partially-blocked behaves like out-of-order except boundaries that
// read a blocking resource resolve inline before the shell goes out.
//
// A render is driven by a Renderer, which is safe for concurrent use;
// all per-render state lives in the call.
package render
