package render

import (
	"bytes"
	"sync"
)

// Meta represents a meta element in the document head.
type Meta struct {
	Name      string // name attribute
	Content   string // content attribute
	Property  string // property attribute (for OpenGraph)
	HTTPEquiv string // http-equiv attribute
	Charset   string // charset attribute
}

// Link represents a link element in the document head.
type Link struct {
	Rel         string // rel attribute
	Href        string // href attribute
	Type        string // type attribute
	Sizes       string // sizes attribute
	CrossOrigin string // crossorigin attribute
	Media       string // media attribute
}

// Script represents a script element in the document head.
type Script struct {
	Src    string // src attribute
	Type   string // type attribute
	Defer  bool   // defer attribute
	Async  bool   // async attribute
	Module bool   // type="module"
	Inline string // inline script content
}

// Head is the render-scoped collector of document head metadata.
// Components may mutate it while the render runs; when the mutations
// become visible depends on the mode. Async mode renders the head
// after the whole tree resolves, so a title set once data loads lands
// in the initial document. Streaming modes snapshot the head at shell
// time.
type Head struct {
	mu      sync.Mutex
	title   string
	metas   []Meta
	links   []Link
	scripts []Script
	styles  []string
}

// NewHead creates an empty head.
func NewHead() *Head {
	return &Head{}
}

// SetTitle sets the document title. The last write wins.
func (h *Head) SetTitle(title string) {
	h.mu.Lock()
	h.title = title
	h.mu.Unlock()
}

// Title returns the current document title.
func (h *Head) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

// AddMeta appends a meta tag.
func (h *Head) AddMeta(m Meta) {
	h.mu.Lock()
	h.metas = append(h.metas, m)
	h.mu.Unlock()
}

// AddLink appends a link tag.
func (h *Head) AddLink(l Link) {
	h.mu.Lock()
	h.links = append(h.links, l)
	h.mu.Unlock()
}

// AddScript appends a head script tag.
func (h *Head) AddScript(s Script) {
	h.mu.Lock()
	h.scripts = append(h.scripts, s)
	h.mu.Unlock()
}

// AddStyle appends an inline stylesheet.
func (h *Head) AddStyle(css string) {
	h.mu.Lock()
	h.styles = append(h.styles, css)
	h.mu.Unlock()
}

// Stylesheet appends an external stylesheet link.
func (h *Head) Stylesheet(href string) {
	h.AddLink(Link{Rel: "stylesheet", Href: href})
}

// render writes the head section.
func (h *Head) render(buf *bytes.Buffer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf.WriteString("<head>\n")
	buf.WriteString(`  <meta charset="utf-8">` + "\n")
	buf.WriteString(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")

	if h.title != "" {
		buf.WriteString("  <title>")
		buf.WriteString(escapeHTML(h.title))
		buf.WriteString("</title>\n")
	}

	for _, m := range h.metas {
		renderMeta(buf, m)
	}
	for _, l := range h.links {
		renderLink(buf, l)
	}
	for _, css := range h.styles {
		buf.WriteString("  <style>")
		buf.WriteString(css)
		buf.WriteString("</style>\n")
	}
	for _, s := range h.scripts {
		renderScript(buf, s)
	}

	buf.WriteString("</head>\n")
}

func renderMeta(buf *bytes.Buffer, m Meta) {
	buf.WriteString("  <meta")
	writeAttr(buf, "charset", m.Charset)
	writeAttr(buf, "name", m.Name)
	writeAttr(buf, "property", m.Property)
	writeAttr(buf, "http-equiv", m.HTTPEquiv)
	writeAttr(buf, "content", m.Content)
	buf.WriteString(">\n")
}

func renderLink(buf *bytes.Buffer, l Link) {
	buf.WriteString("  <link")
	writeAttr(buf, "rel", l.Rel)
	writeAttr(buf, "href", l.Href)
	writeAttr(buf, "type", l.Type)
	writeAttr(buf, "sizes", l.Sizes)
	writeAttr(buf, "crossorigin", l.CrossOrigin)
	writeAttr(buf, "media", l.Media)
	buf.WriteString(">\n")
}

func renderScript(buf *bytes.Buffer, s Script) {
	buf.WriteString("  <script")
	writeAttr(buf, "src", s.Src)
	if s.Module {
		buf.WriteString(` type="module"`)
	} else {
		writeAttr(buf, "type", s.Type)
	}
	if s.Defer {
		buf.WriteString(" defer")
	}
	if s.Async {
		buf.WriteString(" async")
	}
	buf.WriteString(">")
	buf.WriteString(s.Inline)
	buf.WriteString("</script>\n")
}

// writeAttr writes a single attribute if the value is non-empty.
func writeAttr(buf *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteString(`="`)
	buf.WriteString(escapeAttr(value))
	buf.WriteByte('"')
}
