// Package resource provides memoized asynchronous data loading for
// server-side renders.
//
// A Resource is a single unit of asynchronous work with a terminal
// success or failure outcome. Resources are created against a Tracker,
// which is scoped to exactly one render: requesting the same
// (scope, input) key twice within a render shares the in-flight or
// completed evaluation, while a different render recomputes from
// scratch.
//
// Resources are read inside suspense content functions through a Scope.
// The Scope records every read so the renderer can discover which
// resources a boundary depends on, wait for them, and re-evaluate the
// content once they settle:
//
//	posts := resource.New(ctx.Resources(), "posts", "", fetchPosts)
//
//	view.Suspense(view.P(view.Text("Loading...")), func(s *resource.Scope) *view.Node {
//	    list, err := posts.Read(s)
//	    if err != nil {
//	        return nil // boundary is still pending or has failed
//	    }
//	    return renderPosts(list)
//	})
//
// A resource transitions Pending -> Ready or Pending -> Failed exactly
// once and never regresses. Failures are ordinary values carried by the
// resource, not panics; the renderer routes them through error
// boundaries.
package resource
