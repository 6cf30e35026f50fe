// Package ebb provides the public API for the ebb server-rendering engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/ebb-ui/ebb"
//
// Usage:
//
//	s := ebb.New(ebb.Config{})
//	s.Page("/", ebb.OutOfOrder, func(ctx *ebb.Ctx) *ebb.Node {
//	    posts := ebb.NewResource(ctx.Resources(), "posts", "", fetchPosts)
//	    return ebb.Suspense(ebb.Text("Loading..."), func(s *ebb.Scope) *ebb.Node {
//	        data, err := posts.Read(s)
//	        if err != nil {
//	            return nil
//	        }
//	        return ebb.El("ul", ebb.Map(data, postItem))
//	    })
//	})
//	http.ListenAndServe(":8080", s)
package ebb

import (
	"context"

	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/resource"
	"github.com/ebb-ui/ebb/pkg/server"
	"github.com/ebb-ui/ebb/pkg/view"
)

// =============================================================================
// Server (server.Server exposed as ebb's entry point)
// =============================================================================

// Config configures a Server.
type Config = server.Config

// Server routes requests to rendered pages. It implements http.Handler.
type Server = server.Server

// StaticConfig configures static file serving.
type StaticConfig = server.StaticConfig

// New creates a Server from the given configuration.
var New = server.New

// PageFunc builds the view tree for one request.
type PageFunc = server.PageFunc

// RouteOption configures a registered page route.
type RouteOption = server.RouteOption

// WithCache caches the rendered document for fully-resolved routes.
var WithCache = server.WithCache

// WithLang overrides the document language for one route.
var WithLang = server.WithLang

// =============================================================================
// Request context
// =============================================================================

// Ctx is the per-request context handed to page functions. It exposes
// the request, route parameters, the document head, and the resource
// tracker for the render.
type Ctx = server.Ctx

// =============================================================================
// Delivery modes
// =============================================================================

// Mode selects how a page's pending regions are delivered.
type Mode = render.Mode

const (
	// OutOfOrder streams the shell immediately and splices regions
	// in whatever order they resolve.
	OutOfOrder = render.OutOfOrder

	// InOrder streams the document top to bottom, pausing at each
	// pending region.
	InOrder = render.InOrder

	// Async waits for every region and sends one complete document.
	Async = render.Async

	// PartiallyBlocked streams like OutOfOrder but resolves regions
	// that observe a blocking resource before the shell is sent.
	PartiallyBlocked = render.PartiallyBlocked
)

// ParseMode parses a mode name such as "out-of-order" or "async".
var ParseMode = render.ParseMode

// =============================================================================
// Views
// =============================================================================

// Node is one node of a view tree.
type Node = view.Node

// Attr is an explicit attribute for El.
type Attr = view.Attr

// Component is anything that can render itself to a Node.
type Component = view.Component

// ContentFunc produces the content of a pending region. It is re-run
// against a fresh Scope until every resource it reads has settled.
type ContentFunc = view.ContentFunc

// FallbackFunc produces the substitute view for an error boundary.
type FallbackFunc = view.FallbackFunc

// Element and composition helpers, re-exported from pkg/view.
var (
	El            = view.El
	Text          = view.Text
	Textf         = view.Textf
	Raw           = view.Raw
	Fragment      = view.Fragment
	Func          = view.Func
	Suspense      = view.Suspense
	ErrorBoundary = view.ErrorBoundary
	If            = view.If
	IfElse        = view.IfElse
	When          = view.When
)

// Map renders one node per item.
func Map[T any](items []T, fn func(T) *view.Node) []*view.Node {
	return view.Map(items, fn)
}

// =============================================================================
// Resources
// =============================================================================

// Tracker owns the resources of one render.
type Tracker = resource.Tracker

// Scope records which resources one content evaluation observed.
type Scope = resource.Scope

// ResourceError is a resource failure surfaced to error boundaries.
type ResourceError = resource.Error

// ResourceOption configures a new resource.
type ResourceOption = resource.Option

// Blocking marks a resource as shell-blocking for the
// partially-blocked mode.
var Blocking = resource.Blocking

// NewResource starts (or reuses) an async fetch keyed by scope and
// input. Fetches with the same key within one Tracker run once.
func NewResource[T any](t *resource.Tracker, scope, input string, fetch func(context.Context) (T, error), opts ...resource.Option) *resource.Resource[T] {
	return resource.New(t, scope, input, fetch, opts...)
}

// =============================================================================
// Rendering
// =============================================================================

// Renderer renders view trees and documents.
type Renderer = render.Renderer

// RendererConfig configures a standalone Renderer.
type RendererConfig = render.Config

// Document is a full HTML page: language, head, and body tree.
type Document = render.Document

// Head is the mutable document head.
type Head = render.Head

// Meta, Link, and Script describe head elements.
type (
	Meta   = render.Meta
	Link   = render.Link
	Script = render.Script
)

// Chunk is one emitted piece of a streamed render.
type Chunk = render.Chunk

// ChunkSink receives chunks as they are produced.
type ChunkSink = render.ChunkSink

// CollectSink buffers chunks in memory, mainly for tests and caching.
type CollectSink = render.CollectSink

// NewRenderer creates a standalone Renderer for use outside a Server.
func NewRenderer(cfg render.Config) *render.Renderer {
	return render.New(cfg)
}

// IsFatal reports whether a render error aborted the document.
var IsFatal = render.IsFatal
