package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebb-ui/ebb/pkg/cache"
	"github.com/ebb-ui/ebb/pkg/middleware"
	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/view"
)

// PageFunc builds the body tree for one request. Head metadata goes
// through ctx.Head(); resources are created against ctx.Resources().
type PageFunc func(ctx *Ctx) *view.Node

// Config configures a Server.
type Config struct {
	// Logger receives request and render logs. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Renderer performs the actual rendering. A zero-config renderer
	// is created when nil.
	Renderer *render.Renderer

	// Cache stores complete documents for async routes registered with
	// WithCache. Optional.
	Cache cache.Store

	// Metrics, when set, counts renders and emitted chunks.
	Metrics *middleware.Metrics

	// Static configures static file serving. Optional.
	Static StaticConfig

	// Lang is the default html lang attribute for all pages.
	Lang string
}

// Server routes HTTP requests to page renders. Each route carries its
// own delivery mode, so one application can serve out-of-order pages
// next to async ones.
type Server struct {
	mux      *chi.Mux
	logger   *slog.Logger
	renderer *render.Renderer
	cache    cache.Store
	metrics  *middleware.Metrics
	static   *staticFiles
	lang     string
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(render.Config{Logger: logger})
	}

	s := &Server{
		mux:      chi.NewRouter(),
		logger:   logger,
		renderer: renderer,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		lang:     cfg.Lang,
	}
	if cfg.Static.Dir != "" {
		s.static = newStaticFiles(cfg.Static)
	}
	return s
}

// Use appends standard net/http middleware to the routing chain. It
// must be called before any route is registered.
func (s *Server) Use(mw ...func(http.Handler) http.Handler) {
	s.mux.Use(mw...)
}

// pageRoute is the resolved configuration of one registered page.
type pageRoute struct {
	pattern  string
	mode     render.Mode
	page     PageFunc
	lang     string
	cacheTTL time.Duration
	cached   bool
}

// RouteOption configures a page route.
type RouteOption func(*pageRoute)

// WithCache caches the rendered document for ttl. Only async routes
// produce a cacheable unit; WithCache on a streaming route is ignored.
func WithCache(ttl time.Duration) RouteOption {
	return func(r *pageRoute) {
		r.cached = true
		r.cacheTTL = ttl
	}
}

// WithLang overrides the server's default html lang for this route.
func WithLang(lang string) RouteOption {
	return func(r *pageRoute) {
		r.lang = lang
	}
}

// Page registers a GET route rendered under the given mode. Patterns
// use chi syntax: "/post/{id}".
func (s *Server) Page(pattern string, mode render.Mode, page PageFunc, opts ...RouteOption) {
	route := pageRoute{
		pattern: pattern,
		mode:    mode,
		page:    page,
		lang:    s.lang,
	}
	for _, opt := range opts {
		opt(&route)
	}
	if route.cached && (mode != render.Async || s.cache == nil) {
		s.logger.Warn("route cache ignored", "pattern", pattern, "mode", mode.String())
		route.cached = false
	}
	s.mux.Get(pattern, s.pageHandler(route))
}

// Handle mounts an arbitrary handler, e.g. a Prometheus endpoint.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeHTTP implements http.Handler. Static files are checked before
// page routes so an on-disk asset always wins over a route pattern.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.static != nil && r.Method == http.MethodGet {
		if rel, ok := s.static.relPath(r.URL.Path); ok && s.static.exists(rel) {
			s.static.serve(w, r, rel)
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}
