package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/resource"
)

// Ctx is the per-request context handed to page functions. It bundles
// the request, the render-scoped resource tracker, and the document
// head. A Ctx is valid only for the duration of its request.
type Ctx struct {
	req     *http.Request
	logger  *slog.Logger
	head    *render.Head
	tracker *resource.Tracker

	mu     sync.Mutex
	values map[string]any
}

func newCtx(r *http.Request, logger *slog.Logger, head *render.Head, tracker *resource.Tracker) *Ctx {
	return &Ctx{
		req:     r,
		logger:  logger,
		head:    head,
		tracker: tracker,
	}
}

// Request returns the underlying HTTP request.
func (c *Ctx) Request() *http.Request { return c.req }

// Path returns the request path.
func (c *Ctx) Path() string { return c.req.URL.Path }

// Method returns the request method.
func (c *Ctx) Method() string { return c.req.Method }

// Param returns a route parameter, e.g. "id" for "/post/{id}".
func (c *Ctx) Param(name string) string {
	return chi.URLParam(c.req, name)
}

// Query returns the parsed query string.
func (c *Ctx) Query() url.Values {
	return c.req.URL.Query()
}

// QueryParam returns a single query parameter value.
func (c *Ctx) QueryParam(name string) string {
	return c.req.URL.Query().Get(name)
}

// Header returns a request header value.
func (c *Ctx) Header(name string) string {
	return c.req.Header.Get(name)
}

// Cookie returns the named request cookie, or nil when absent.
func (c *Ctx) Cookie(name string) *http.Cookie {
	ck, err := c.req.Cookie(name)
	if err != nil {
		return nil
	}
	return ck
}

// Head returns the document head for this render. Mutations made after
// data loads are visible in async mode; streaming modes snapshot at
// shell time.
func (c *Ctx) Head() *render.Head { return c.head }

// Resources returns the render-scoped resource tracker. Pass it to
// resource.New inside suspense content functions.
func (c *Ctx) Resources() *resource.Tracker { return c.tracker }

// Context returns the context resource evaluations run under. It is
// cancelled when the client disconnects or the render ends.
func (c *Ctx) Context() context.Context { return c.tracker.Context() }

// Logger returns the request-scoped logger.
func (c *Ctx) Logger() *slog.Logger { return c.logger }

// SetValue stores a request-scoped value, e.g. for handing data from
// route setup to nested components.
func (c *Ctx) SetValue(key string, value any) {
	c.mu.Lock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
	c.mu.Unlock()
}

// Value returns a value stored with SetValue.
func (c *Ctx) Value(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}
