package view

import "github.com/ebb-ui/ebb/pkg/resource"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement       Kind = iota // <div>, <p>, etc.
	KindText                      // Escaped text node
	KindRaw                       // Raw HTML (dangerous)
	KindFragment                  // Grouping without wrapper
	KindComponent                 // Nested component
	KindSuspense                  // Async boundary with fallback
	KindErrorBoundary             // Failure-absorbing boundary
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindRaw:
		return "Raw"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindSuspense:
		return "Suspense"
	case KindErrorBoundary:
		return "ErrorBoundary"
	default:
		return "Unknown"
	}
}

// ContentFunc produces a suspense boundary's content. It is evaluated
// at least twice when its resources are not yet settled (once to
// discover the reads, once after they settle), so it must be a pure
// function of the scope and the resources it captures.
type ContentFunc func(*resource.Scope) *Node

// FallbackFunc builds an error boundary's fallback view from the
// failures collected in its subtree, in insertion order.
type FallbackFunc func(errs []*resource.Error) *Node

// Node is one node of an immutable view tree. It is a closed tagged
// variant: exactly the fields for its Kind are set, and a constructed
// tree is never mutated, only evaluated.
type Node struct {
	Kind     Kind
	Tag      string  // KindElement tag name
	Props    Props   // KindElement attributes
	Children []*Node // KindElement, KindFragment, KindErrorBoundary
	Text     string  // KindText, KindRaw
	Comp     Component

	Fallback *Node        // KindSuspense fallback markup
	Content  ContentFunc  // KindSuspense content thunk
	Errors   FallbackFunc // KindErrorBoundary fallback builder
}

// Props holds element attributes. Values may be string, bool, int,
// int64 or float64; anything else is formatted with %v.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// Component is anything that can render to a Node.
type Component interface {
	Render() *Node
}

// FuncComponent wraps a render function.
type FuncComponent struct {
	render func() *Node
}

// Render implements Component.
func (f *FuncComponent) Render() *Node {
	return f.render()
}

// Func creates a component from a render function.
func Func(render func() *Node) Component {
	return &FuncComponent{render: render}
}

// Suspense creates a boundary whose content depends on asynchronous
// resources. The fallback is emitted while the content's resources are
// pending; how and when the resolved content replaces it depends on
// the render mode.
func Suspense(fallback *Node, content ContentFunc) *Node {
	return &Node{
		Kind:     KindSuspense,
		Fallback: fallback,
		Content:  content,
	}
}

// ErrorBoundary creates a region that intercepts failures propagated
// from suspense boundaries in its subtree and substitutes the fallback
// built from the collected errors. Fallback views should be static:
// any suspense boundary inside one renders as its fallback markup.
func ErrorBoundary(fallback FallbackFunc, children ...any) *Node {
	n := Fragment(children...)
	return &Node{
		Kind:     KindErrorBoundary,
		Children: n.Children,
		Errors:   fallback,
	}
}
