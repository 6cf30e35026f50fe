package render

import "strings"

// Escaping tables indexed by byte. All escaped characters are ASCII,
// so scanning bytes is safe for UTF-8 input; multi-byte runes pass
// through untouched. Attribute values additionally escape the
// whitespace bytes that can split a value out of its quotes.
var (
	htmlEsc = [256]string{
		'&':  "&amp;",
		'<':  "&lt;",
		'>':  "&gt;",
		'"':  "&quot;",
		'\'': "&#39;",
	}

	attrEsc = [256]string{
		'&':  "&amp;",
		'<':  "&lt;",
		'>':  "&gt;",
		'"':  "&quot;",
		'\'': "&#39;",
		'\n': "&#10;",
		'\r': "&#13;",
		'\t': "&#9;",
	}
)

// escapeHTML escapes text for inclusion in element content.
func escapeHTML(s string) string {
	return escapeWith(s, &htmlEsc)
}

// escapeAttr escapes text for inclusion in a quoted attribute value.
func escapeAttr(s string) string {
	return escapeWith(s, &attrEsc)
}

func escapeWith(s string, table *[256]string) string {
	// Most strings need no escaping; return them without allocating.
	i := 0
	for i < len(s) && table[s[i]] == "" {
		i++
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		if rep := table[s[i]]; rep != "" {
			b.WriteString(rep)
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
