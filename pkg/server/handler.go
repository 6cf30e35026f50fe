package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/resource"
)

const contentTypeHTML = "text/html; charset=utf-8"

// pageHandler builds the http.HandlerFunc for one page route.
func (s *Server) pageHandler(route pageRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("path", r.URL.Path, "mode", route.mode.String())

		if route.cached {
			if body, found, err := s.cache.Get(r.Context(), cacheKey(r)); err == nil && found {
				if s.metrics != nil {
					s.metrics.RecordCache(true)
				}
				w.Header().Set("Content-Type", contentTypeHTML)
				w.Write(body)
				return
			} else if err != nil {
				logger.Warn("cache lookup failed", "error", err)
			}
			if s.metrics != nil {
				s.metrics.RecordCache(false)
			}
		}

		tracker := resource.NewTracker(r.Context())
		defer tracker.Close()

		head := render.NewHead()
		ctx := newCtx(r, logger, head, tracker)

		doc := &render.Document{
			Lang: route.lang,
			Head: head,
			Body: route.page(ctx),
		}

		var done func()
		if s.metrics != nil {
			done = s.metrics.RenderStarted()
		}
		start := time.Now()
		var err error
		if route.mode == render.Async {
			err = s.serveAsync(w, r, route, doc, tracker)
		} else {
			err = s.serveStream(w, route, doc, tracker, logger)
		}
		if s.metrics != nil {
			s.metrics.ObserveRender(route.mode, err, time.Since(start))
			done()
		}
	}
}

// serveAsync renders the complete document in memory, then delivers it
// in one response. Failures produce a full error page since nothing
// has been written yet.
func (s *Server) serveAsync(w http.ResponseWriter, r *http.Request, route pageRoute, doc *render.Document, tracker *resource.Tracker) error {
	sink := &render.CollectSink{}
	err := s.renderer.RenderDocument(tracker.Context(), doc, render.Async, s.instrument(render.Async, sink))
	if err != nil {
		s.logger.Error("async render failed", "path", r.URL.Path, "error", err)
		s.serveErrorPage(w, http.StatusInternalServerError)
		return err
	}

	body := sink.Concat()
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Write(body)

	if route.cached {
		if cerr := s.cache.Put(r.Context(), cacheKey(r), body, route.cacheTTL); cerr != nil {
			s.logger.Warn("cache store failed", "path", r.URL.Path, "error", cerr)
		}
	}
	return nil
}

// serveStream delivers chunks as they are produced, flushing after
// each so the client sees the shell immediately. Once the first byte
// is out the status is fixed; later failures can only be logged and
// the connection dropped.
func (s *Server) serveStream(w http.ResponseWriter, route pageRoute, doc *render.Document, tracker *resource.Tracker, logger *slog.Logger) error {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")

	sink := newHTTPSink(w)
	err := s.renderer.RenderDocument(tracker.Context(), doc, route.mode, s.instrument(route.mode, sink))
	if err == nil {
		return nil
	}
	if !sink.wrote {
		s.serveErrorPage(w, http.StatusInternalServerError)
		return err
	}
	logger.Error("stream aborted", "error", err)
	return err
}

func (s *Server) instrument(mode render.Mode, sink render.ChunkSink) render.ChunkSink {
	if s.metrics == nil {
		return sink
	}
	return s.metrics.InstrumentSink(mode, sink)
}

func cacheKey(r *http.Request) string {
	return r.URL.RequestURI()
}

// httpSink writes chunks straight to the response, flushing each one.
type httpSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

func newHTTPSink(w http.ResponseWriter) *httpSink {
	s := &httpSink{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Emit implements render.ChunkSink.
func (s *httpSink) Emit(c render.Chunk) error {
	s.wrote = true
	if _, err := s.w.Write(c.Bytes); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
