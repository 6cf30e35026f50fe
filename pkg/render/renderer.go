package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/ebb-ui/ebb/pkg/view"
)

// Config configures the renderer.
type Config struct {
	// Logger receives per-render debug and error logs.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Renderer converts view trees to HTML. A single Renderer is safe for
// concurrent use; all per-render state lives in the stream created by
// RenderStream.
type Renderer struct {
	logger *slog.Logger
}

// New creates a Renderer with the given configuration.
func New(config Config) *Renderer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// RenderToString renders a tree to a complete HTML string, statically:
// suspense boundaries render their fallback markup and error
// boundaries render their children. Use RenderStream for resolution.
func (r *Renderer) RenderToString(node *view.Node) string {
	var buf bytes.Buffer
	renderStatic(&buf, node)
	return buf.String()
}

// RenderToWriter writes the static rendering of a tree to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *view.Node) error {
	var buf bytes.Buffer
	renderStatic(&buf, node)
	_, err := w.Write(buf.Bytes())
	return err
}

// renderStatic renders a node without resolving anything asynchronous.
// It is the base case used for fallback markup and for error-boundary
// fallback views.
func renderStatic(buf *bytes.Buffer, node *view.Node) {
	if node == nil {
		return
	}
	switch node.Kind {
	case view.KindElement:
		renderElement(buf, node, func(child *view.Node) {
			renderStatic(buf, child)
		})
	case view.KindText:
		buf.WriteString(escapeHTML(node.Text))
	case view.KindRaw:
		buf.WriteString(node.Text)
	case view.KindFragment, view.KindErrorBoundary:
		for _, child := range node.Children {
			renderStatic(buf, child)
		}
	case view.KindComponent:
		if node.Comp != nil {
			renderStatic(buf, node.Comp.Render())
		}
	case view.KindSuspense:
		renderStatic(buf, node.Fallback)
	}
}

// renderElement writes an element's tags and attributes, delegating
// child rendering to recurse so each traversal strategy can hook
// boundary nodes while producing identical element markup.
func renderElement(buf *bytes.Buffer, node *view.Node, recurse func(*view.Node)) {
	buf.WriteByte('<')
	buf.WriteString(node.Tag)
	renderAttributes(buf, node.Props)

	if isVoidElement(node.Tag) {
		buf.WriteByte('>')
		return
	}
	buf.WriteByte('>')

	for _, child := range node.Children {
		recurse(child)
	}

	buf.WriteString("</")
	buf.WriteString(node.Tag)
	buf.WriteByte('>')
}

// renderAttributes writes all attributes for an element, sorted for
// deterministic output.
func renderAttributes(buf *bytes.Buffer, props view.Props) {
	if len(props) == 0 {
		return
	}

	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		// Skip internal props.
		if strings.HasPrefix(key, "_") {
			continue
		}
		value := props[key]

		if isBooleanAttr(key) {
			if boolValue, ok := value.(bool); ok {
				if boolValue {
					buf.WriteByte(' ')
					buf.WriteString(key)
				}
				continue
			}
		}

		strValue := attrToString(value)
		if strValue != "" {
			buf.WriteByte(' ')
			buf.WriteString(key)
			buf.WriteString(`="`)
			buf.WriteString(escapeAttr(strValue))
			buf.WriteByte('"')
		}
	}
}

// attrToString converts an attribute value to a string.
func attrToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
