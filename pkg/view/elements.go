package view

// Common element constructors. These cover the tags the engine's own
// fallbacks and the demo applications use; El handles everything else.

// Div creates a <div> element.
func Div(args ...any) *Node { return El("div", args...) }

// Span creates a <span> element.
func Span(args ...any) *Node { return El("span", args...) }

// P creates a <p> element.
func P(args ...any) *Node { return El("p", args...) }

// H1 creates an <h1> element.
func H1(args ...any) *Node { return El("h1", args...) }

// H2 creates an <h2> element.
func H2(args ...any) *Node { return El("h2", args...) }

// H3 creates an <h3> element.
func H3(args ...any) *Node { return El("h3", args...) }

// Ul creates a <ul> element.
func Ul(args ...any) *Node { return El("ul", args...) }

// Ol creates an <ol> element.
func Ol(args ...any) *Node { return El("ol", args...) }

// Li creates an <li> element.
func Li(args ...any) *Node { return El("li", args...) }

// A creates an <a> element.
func A(args ...any) *Node { return El("a", args...) }

// Nav creates a <nav> element.
func Nav(args ...any) *Node { return El("nav", args...) }

// Main creates a <main> element.
func Main(args ...any) *Node { return El("main", args...) }

// Section creates a <section> element.
func Section(args ...any) *Node { return El("section", args...) }

// Article creates an <article> element.
func Article(args ...any) *Node { return El("article", args...) }

// Header creates a <header> element.
func Header(args ...any) *Node { return El("header", args...) }

// Footer creates a <footer> element.
func Footer(args ...any) *Node { return El("footer", args...) }

// Img creates an <img> element.
func Img(args ...any) *Node { return El("img", args...) }

// Br creates a <br> element.
func Br(args ...any) *Node { return El("br", args...) }

// Attribute helpers.

// Class sets the class attribute.
func Class(v string) Attr { return Attr{Key: "class", Value: v} }

// ID sets the id attribute.
func ID(v string) Attr { return Attr{Key: "id", Value: v} }

// Href sets the href attribute.
func Href(v string) Attr { return Attr{Key: "href", Value: v} }

// Src sets the src attribute.
func Src(v string) Attr { return Attr{Key: "src", Value: v} }

// Alt sets the alt attribute.
func Alt(v string) Attr { return Attr{Key: "alt", Value: v} }

// Style sets the style attribute.
func Style(v string) Attr { return Attr{Key: "style", Value: v} }

// Title sets the title attribute.
func Title(v string) Attr { return Attr{Key: "title", Value: v} }

// Set sets an arbitrary attribute.
func Set(key string, value any) Attr { return Attr{Key: key, Value: value} }
