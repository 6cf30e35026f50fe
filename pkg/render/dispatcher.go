package render

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebb-ui/ebb/pkg/resource"
	"github.com/ebb-ui/ebb/pkg/view"
)

// RenderStream renders a tree under the given mode, delivering chunks
// to sink. It returns once the render is complete: every boundary has
// settled and emitted, the registry is discarded, and no worker
// goroutines remain. The returned error is non-nil only for fatal
// aborts (async mode), sink failures, or context cancellation;
// streaming modes degrade data failures into error payload chunks.
func (r *Renderer) RenderStream(ctx context.Context, root *view.Node, mode Mode, sink ChunkSink) error {
	st := newStream(r, ctx, mode, sink)
	defer st.cancel()
	defer st.reg.discard()
	return st.run(root)
}

// stream holds the state of one render. It is created per call and
// never shared across renders.
type stream struct {
	r      *Renderer
	ctx    context.Context
	cancel context.CancelFunc
	mode   Mode
	reg    *registry
	em     *emitter
	wg     sync.WaitGroup // deferred boundary and error-boundary workers

	// shellDone gates top-level deferred emissions: no worker may emit
	// before the shell chunk. Closed once the shell is on the wire.
	// Boundaries nested inside a deferred chunk gate on that chunk's
	// emission instead, so a chunk never precedes the markers it
	// splices into.
	shellDone chan struct{}

	// deferredN counts spawned workers that will emit a chunk after
	// the shell; non-zero means the shell needs the splice runtime.
	deferredN atomic.Int32

	// Document assembly hooks. Zero values render the bare tree.
	prefix     []byte                                  // in-order: written before the first segment
	suffix     []byte                                  // in-order: written after the last segment
	shellWrap  func(body []byte, deferred bool) []byte // other modes: builds the shell chunk
	finalChunk []byte                                  // streaming: emitted once all boundaries settle

	mu  sync.Mutex
	err error
}

func newStream(r *Renderer, ctx context.Context, mode Mode, sink ChunkSink) *stream {
	sctx, cancel := context.WithCancel(ctx)
	st := &stream{
		r:         r,
		ctx:       sctx,
		cancel:    cancel,
		mode:      mode,
		reg:       newRegistry(),
		shellDone: make(chan struct{}),
	}
	// A dead sink means the client is gone: cancel outstanding work.
	st.em = newEmitter(sink, func(err error) {
		st.fail(err)
	})
	st.shellWrap = func(body []byte, deferred bool) []byte {
		if !deferred {
			return body
		}
		out := make([]byte, 0, len(body)+len(SpliceScript))
		out = append(out, body...)
		out = append(out, SpliceScript...)
		return out
	}
	return st
}

func (st *stream) run(root *view.Node) error {
	start := time.Now()
	var err error
	switch st.mode {
	case Async:
		err = st.renderAsync(root)
	case InOrder:
		err = st.renderInOrder(root)
	default:
		err = st.renderStreaming(root)
	}
	if err != nil {
		st.r.logger.Error("render failed",
			"mode", st.mode.String(),
			"boundaries", st.reg.registered(),
			"error", err)
		return err
	}
	st.r.logger.Debug("render complete",
		"mode", st.mode.String(),
		"boundaries", st.reg.registered(),
		"duration", time.Since(start))
	return nil
}

// fail records the first error and unwinds the render.
func (st *stream) fail(err error) {
	st.mu.Lock()
	if st.err == nil {
		st.err = err
	}
	st.mu.Unlock()
	st.cancel()
}

func (st *stream) firstErr() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

// settle drives a boundary's content to a terminal state: evaluate,
// wait for every pending resource the evaluation read, re-evaluate.
// Each iteration settles at least one new resource, so the loop
// terminates. Resources race freely; the boundary is settled only when
// the last of them is (AND semantics).
func (st *stream) settle(content view.ContentFunc) (*view.Node, []*resource.Error, error) {
	for {
		s := resource.NewScope(st.ctx)
		n := content(s)

		pending := s.Pending()
		if len(pending) == 0 {
			if failed := s.Failed(); len(failed) > 0 {
				return nil, failed, nil
			}
			return n, nil, nil
		}
		for _, h := range pending {
			select {
			case <-h.Done():
			case <-st.ctx.Done():
				return nil, nil, st.ctx.Err()
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Async mode
// ---------------------------------------------------------------------------

func (st *stream) renderAsync(root *view.Node) error {
	resolved, err := st.resolve(root, nil, false)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if IsFatal(err) {
			return err
		}
		// Unabsorbed boundary failure at the root: abort before any
		// byte is emitted. Async never delivers a partial document.
		return &FatalError{Cause: err}
	}

	var body bytes.Buffer
	renderStatic(&body, resolved)

	out := st.shellWrap(body.Bytes(), false)
	if st.finalChunk != nil {
		out = append(append([]byte(nil), out...), st.finalChunk...)
	}
	return st.em.emit("", out)
}

// failureCollector accumulates the failures bubbling toward one error
// boundary during materialization.
type failureCollector struct {
	errs []*resource.Error
}

func (fc *failureCollector) add(errs []*resource.Error) {
	fc.errs = append(fc.errs, errs...)
}

// resolve returns a fully materialized copy of node: every suspense
// boundary replaced by its settled content and every error boundary by
// its children or aggregated fallback. fc is the nearest enclosing
// error boundary's collector, nil at the root. With degrade set,
// unabsorbed failures materialize as an error payload instead of
// aborting; async mode leaves it unset.
func (st *stream) resolve(node *view.Node, fc *failureCollector, degrade bool) (*view.Node, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case view.KindText, view.KindRaw:
		return node, nil

	case view.KindElement, view.KindFragment:
		out := *node
		out.Children = make([]*view.Node, 0, len(node.Children))
		for _, child := range node.Children {
			rc, err := st.resolve(child, fc, degrade)
			if err != nil {
				return nil, err
			}
			if rc != nil {
				out.Children = append(out.Children, rc)
			}
		}
		return &out, nil

	case view.KindComponent:
		if node.Comp == nil {
			return nil, nil
		}
		return st.resolve(node.Comp.Render(), fc, degrade)

	case view.KindSuspense:
		id := st.reg.register()
		n, fails, err := st.settle(node.Content)
		if err != nil {
			return nil, err
		}
		if fails != nil {
			if serr := st.reg.settle(id, true); serr != nil {
				return nil, serr
			}
			if fc != nil {
				// Absorbed: the enclosing error boundary replaces this
				// whole region, so the boundary contributes nothing.
				fc.add(fails)
				return &view.Node{Kind: view.KindFragment}, nil
			}
			if degrade {
				return view.Raw(string(errorPayload(fails))), nil
			}
			return nil, &BoundaryError{Boundary: id, Errors: fails}
		}
		if serr := st.reg.settle(id, false); serr != nil {
			return nil, serr
		}
		return st.resolve(n, fc, degrade)

	case view.KindErrorBoundary:
		id := st.reg.register()
		child := &failureCollector{}
		kids := make([]*view.Node, 0, len(node.Children))
		// Resolve every child even after a failure so sibling failures
		// are all collected before the fallback is built.
		for _, c := range node.Children {
			rc, err := st.resolve(c, child, degrade)
			if err != nil {
				return nil, err
			}
			if rc != nil {
				kids = append(kids, rc)
			}
		}
		if serr := st.reg.settle(id, len(child.errs) > 0); serr != nil {
			return nil, serr
		}
		if len(child.errs) > 0 {
			return node.Errors(child.errs), nil
		}
		return &view.Node{Kind: view.KindFragment, Children: kids}, nil

	default:
		return nil, &FatalError{Cause: errors.New("unknown node kind")}
	}
}

// ---------------------------------------------------------------------------
// In-order mode
// ---------------------------------------------------------------------------

func (st *stream) renderInOrder(root *view.Node) error {
	buf := &bytes.Buffer{}
	buf.Write(st.prefix)

	w := &inOrderWalker{st: st, buf: buf}
	w.walk(root)
	if w.err != nil {
		return w.err
	}

	buf.Write(st.suffix)
	if err := st.flushSegment(buf); err != nil {
		return err
	}
	return st.firstErr()
}

// flushSegment emits the buffered bytes as one untagged chunk.
func (st *stream) flushSegment(buf *bytes.Buffer) error {
	if buf.Len() == 0 {
		return nil
	}
	b := make([]byte, buf.Len())
	copy(b, buf.Bytes())
	buf.Reset()
	return st.em.emit("", b)
}

// inOrderWalker emits document-order segments, blocking the stream
// (never the resource evaluation) at each suspense boundary.
type inOrderWalker struct {
	st  *stream
	buf *bytes.Buffer
	err error
}

func (w *inOrderWalker) walk(node *view.Node) {
	if w.err != nil || node == nil {
		return
	}
	switch node.Kind {
	case view.KindElement:
		renderElement(w.buf, node, w.walk)
	case view.KindText:
		w.buf.WriteString(escapeHTML(node.Text))
	case view.KindRaw:
		w.buf.WriteString(node.Text)
	case view.KindFragment:
		for _, child := range node.Children {
			w.walk(child)
		}
	case view.KindComponent:
		if node.Comp != nil {
			w.walk(node.Comp.Render())
		}

	case view.KindSuspense:
		// Everything before the boundary goes out immediately; the
		// stream then waits for this boundary before continuing.
		if w.err = w.st.flushSegment(w.buf); w.err != nil {
			return
		}
		id := w.st.reg.register()
		n, fails, err := w.st.settle(node.Content)
		if err != nil {
			w.err = err
			return
		}
		if fails != nil {
			if w.err = w.st.reg.settle(id, true); w.err != nil {
				return
			}
			// No enclosing error boundary here (those buffer their
			// subtree below): degrade in place and keep going.
			w.buf.Write(errorPayload(fails))
			return
		}
		if w.err = w.st.reg.settle(id, false); w.err != nil {
			return
		}
		w.walk(n)

	case view.KindErrorBoundary:
		// AND-aggregation requires the whole subtree settled before
		// deciding between children and fallback, so the stream blocks
		// at the boundary and the region is emitted materialized.
		resolved, err := w.st.resolve(node, nil, true)
		if err != nil {
			w.err = err
			return
		}
		renderStatic(w.buf, resolved)
	}
}

// ---------------------------------------------------------------------------
// Out-of-order and partially-blocked modes
// ---------------------------------------------------------------------------

func (st *stream) renderStreaming(root *view.Node) error {
	buf := &bytes.Buffer{}
	w := &shellWalker{st: st, buf: buf, gate: st.shellDone}
	w.walk(root)
	if w.err != nil {
		st.fail(w.err)
		st.wg.Wait()
		return w.err
	}

	deferred := st.deferredN.Load() > 0
	if err := st.em.emit("", st.shellWrap(buf.Bytes(), deferred)); err != nil {
		st.fail(err)
	}
	close(st.shellDone)

	st.wg.Wait()

	if err := st.firstErr(); err != nil {
		return err
	}
	if err := st.ctx.Err(); err != nil {
		return err
	}
	if st.finalChunk != nil {
		if err := st.em.emit("", st.finalChunk); err != nil {
			return err
		}
	}
	return nil
}

// shellWalker renders the initial shell, deferring suspense boundaries
// to worker goroutines and bracketing splice regions with markers.
type shellWalker struct {
	st  *stream
	buf *bytes.Buffer
	eb  *ebWorker // nearest enclosing error boundary, nil at the root
	err error

	// gate is closed once the chunk this walker renders into is on
	// the wire: the shell for the root walk, the enclosing deferred
	// chunk for nested walks. Workers spawned here wait on it before
	// emitting, since their markers travel inside that chunk.
	gate chan struct{}
}

func (w *shellWalker) walk(node *view.Node) {
	if w.err != nil || node == nil {
		return
	}
	switch node.Kind {
	case view.KindElement:
		renderElement(w.buf, node, w.walk)
	case view.KindText:
		w.buf.WriteString(escapeHTML(node.Text))
	case view.KindRaw:
		w.buf.WriteString(node.Text)
	case view.KindFragment:
		for _, child := range node.Children {
			w.walk(child)
		}
	case view.KindComponent:
		if node.Comp != nil {
			w.walk(node.Comp.Render())
		}
	case view.KindSuspense:
		w.suspense(node)
	case view.KindErrorBoundary:
		w.errorBoundary(node)
	}
}

func (w *shellWalker) suspense(node *view.Node) {
	st := w.st

	if st.mode == PartiallyBlocked {
		// The first evaluation discovers the boundary's resources;
		// a blocking resource anywhere in that set pins the boundary
		// to the shell.
		probe := resource.NewScope(st.ctx)
		node.Content(probe)
		if probe.Blocking() {
			w.blockingSuspense(node)
			return
		}
	}

	// Deferred: fallback plus placeholder markers now, one chunk when
	// the boundary settles.
	id := st.reg.register()
	if w.eb != nil {
		w.eb.addChild()
	}
	w.buf.WriteString(openMarker(id))
	renderStatic(w.buf, node.Fallback)
	w.buf.WriteString(closeMarker(id))

	st.deferredN.Add(1)
	st.wg.Add(1)
	go st.settleDeferred(id, node.Content, w.eb, w.gate)
}

// blockingSuspense resolves a boundary in place before the shell is
// flushed. Nested boundaries inside its content still stream as usual.
func (w *shellWalker) blockingSuspense(node *view.Node) {
	st := w.st
	id := st.reg.register()

	n, fails, err := st.settle(node.Content)
	if err != nil {
		w.err = err
		return
	}
	if fails != nil {
		if w.err = st.reg.settle(id, true); w.err != nil {
			return
		}
		if w.eb != nil {
			// The substitution chunk replaces this whole region; the
			// fallback fills it until then.
			renderStatic(w.buf, node.Fallback)
			st.deferredN.Add(1)
			w.eb.addChild()
			w.eb.childSettled(fails)
			return
		}
		w.buf.Write(errorPayload(fails))
		return
	}
	if w.err = st.reg.settle(id, false); w.err != nil {
		return
	}
	w.walk(n)
}

// settleDeferred is the worker for one deferred boundary. gate is the
// emission of the chunk carrying this boundary's markers.
func (st *stream) settleDeferred(id int, content view.ContentFunc, eb *ebWorker, gate chan struct{}) {
	defer st.wg.Done()

	n, fails, err := st.settle(content)
	if err != nil {
		// Render cancelled mid-stream; nothing is emitted.
		if eb != nil {
			eb.childSettled(nil)
		}
		return
	}

	// A chunk never precedes the markers it splices into.
	select {
	case <-gate:
	case <-st.ctx.Done():
		if eb != nil {
			eb.childSettled(nil)
		}
		return
	}

	token := boundaryToken(id)

	if fails != nil {
		if serr := st.reg.settle(id, true); serr != nil {
			st.fail(serr)
			return
		}
		if eb != nil {
			// Absorbed: the error boundary aggregates and substitutes;
			// this boundary emits no chunk of its own.
			eb.childSettled(fails)
			return
		}
		if serr := st.em.emit(token, frameChunk(token, errorPayload(fails))); serr != nil {
			st.fail(serr)
		}
		return
	}

	if serr := st.reg.settle(id, false); serr != nil {
		st.fail(serr)
		return
	}

	// Render the resolved content. Nested boundaries register inside
	// this chunk and defer their own workers, each independently
	// resolvable but gated on this chunk's emission. The failure
	// paths leave the gate unclosed; nested workers unwind through
	// the stream context, which fail cancels.
	emitted := make(chan struct{})
	buf := &bytes.Buffer{}
	cw := &shellWalker{st: st, buf: buf, eb: eb, gate: emitted}
	cw.walk(n)
	if cw.err != nil {
		st.fail(cw.err)
		return
	}
	if serr := st.em.emit(token, frameChunk(token, buf.Bytes())); serr != nil {
		st.fail(serr)
		return
	}
	close(emitted)
	if eb != nil {
		eb.childSettled(nil)
	}
}

// errorBoundary renders an error boundary region in the shell and
// arms a worker that aggregates descendant failures.
func (w *shellWalker) errorBoundary(node *view.Node) {
	st := w.st
	id := st.reg.register()
	eb := &ebWorker{st: st, id: id, fallback: node.Errors, gate: w.gate}
	st.wg.Add(1)

	w.buf.WriteString(openMarker(id))
	inner := &shellWalker{st: st, buf: w.buf, eb: eb, gate: w.gate}
	for _, child := range node.Children {
		inner.walk(child)
	}
	w.buf.WriteString(closeMarker(id))
	if inner.err != nil {
		w.err = inner.err
	}
	eb.seal()
}

// ebWorker tracks one error boundary's unsettled descendant boundaries
// during a streaming render. Once the region's traversal is sealed and
// every descendant has settled, it either resolves silently (no
// failures) or emits a single substitution chunk built from all
// collected errors. Substitution happens at most once; failures
// arriving from an already-substituted subtree are impossible because
// substitution waits for every descendant.
type ebWorker struct {
	st       *stream
	id       int
	fallback view.FallbackFunc
	gate     chan struct{} // emission of the chunk carrying this boundary's markers

	mu        sync.Mutex
	open      int
	sealed    bool
	errs      []*resource.Error
	completed bool
}

func (w *ebWorker) addChild() {
	w.mu.Lock()
	w.open++
	w.mu.Unlock()
}

func (w *ebWorker) childSettled(fails []*resource.Error) {
	w.mu.Lock()
	w.open--
	if len(fails) > 0 && !w.completed {
		w.errs = append(w.errs, fails...)
	}
	run := w.readyLocked()
	w.mu.Unlock()
	if run {
		w.complete()
	}
}

func (w *ebWorker) seal() {
	w.mu.Lock()
	w.sealed = true
	run := w.readyLocked()
	w.mu.Unlock()
	if run {
		w.complete()
	}
}

func (w *ebWorker) readyLocked() bool {
	if w.completed || !w.sealed || w.open > 0 {
		return false
	}
	w.completed = true
	return true
}

// complete runs exactly once, after seal and the last childSettled.
// It may be reached on the traversal goroutine itself (a boundary that
// settled before the region sealed), so the substitution chunk is
// emitted from a worker goroutine gated behind the chunk that carries
// this boundary's markers.
func (w *ebWorker) complete() {
	st := w.st

	if err := st.reg.settle(w.id, len(w.errs) > 0); err != nil {
		st.fail(err)
		st.wg.Done()
		return
	}
	if len(w.errs) == 0 {
		st.wg.Done()
		return
	}

	go func() {
		defer st.wg.Done()
		select {
		case <-w.gate:
		case <-st.ctx.Done():
			return
		}
		token := boundaryToken(w.id)
		buf := &bytes.Buffer{}
		renderStatic(buf, w.fallback(w.errs))
		if err := st.em.emit(token, frameChunk(token, buf.Bytes())); err != nil {
			st.fail(err)
		}
	}()
}

// errorPayload is the degraded markup emitted for a failed boundary
// with no enclosing error boundary.
func errorPayload(errs []*resource.Error) []byte {
	var b bytes.Buffer
	b.WriteString(`<div class="ebb-error"><p>Something went wrong.</p><ul>`)
	for _, e := range errs {
		b.WriteString("<li>")
		b.WriteString(escapeHTML(e.Error()))
		b.WriteString("</li>")
	}
	b.WriteString("</ul></div>")
	return b.Bytes()
}
