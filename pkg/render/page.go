package render

import (
	"bytes"
	"context"

	"github.com/ebb-ui/ebb/pkg/view"
)

// Document is a full HTML page: head metadata plus a body tree.
type Document struct {
	Lang string // html lang attribute, "en" when empty
	Head *Head
	Body *view.Node
}

const docSuffix = "</body>\n</html>\n"

// RenderDocument renders a complete HTML document under the given mode.
//
// Where the head lands depends on the mode. Async resolves the whole
// tree first, so head mutations made while data loads (a title set from
// a fetched post, say) appear in the one emitted document. Out-of-order
// and partially-blocked snapshot the head when the shell goes out,
// which still covers mutations from blocking boundaries. In-order
// snapshots the head before the body starts streaming.
func (r *Renderer) RenderDocument(ctx context.Context, doc *Document, mode Mode, sink ChunkSink) error {
	head := doc.Head
	if head == nil {
		head = NewHead()
	}

	st := newStream(r, ctx, mode, sink)
	defer st.cancel()
	defer st.reg.discard()

	switch mode {
	case InOrder:
		st.prefix = docPrefix(doc.Lang, head)
		st.suffix = []byte(docSuffix)
	case Async:
		st.shellWrap = func(body []byte, _ bool) []byte {
			out := docPrefix(doc.Lang, head)
			out = append(out, body...)
			out = append(out, docSuffix...)
			return out
		}
	default:
		st.shellWrap = func(body []byte, deferred bool) []byte {
			out := docPrefix(doc.Lang, head)
			out = append(out, body...)
			if deferred {
				out = append(out, SpliceScript...)
			}
			return out
		}
		st.finalChunk = []byte(docSuffix)
	}

	return st.run(doc.Body)
}

func docPrefix(lang string, head *Head) []byte {
	if lang == "" {
		lang = "en"
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="`)
	b.WriteString(escapeAttr(lang))
	b.WriteString("\">\n")
	head.render(&b)
	b.WriteString("<body>\n")
	return b.Bytes()
}
