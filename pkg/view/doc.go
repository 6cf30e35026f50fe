// Package view provides the immutable view tree the renderer consumes.
//
// A tree is built from plain constructors:
//
//	view.Div(view.Class("post"),
//	    view.H1(view.Text(post.Title)),
//	    view.P(view.Text(post.Content)),
//	)
//
// Two node kinds carry asynchronous semantics. Suspense wraps content
// that depends on pending resources and renders a fallback until they
// settle; ErrorBoundary absorbs failures from suspense boundaries in
// its subtree and substitutes a fallback built from the collected
// errors. Everything else is static markup.
//
// Trees are immutable once constructed and may be evaluated multiple
// times only within the same render.
package view
