package render

import "bytes"

// SpliceScript is the client runtime for out-of-order and
// partially-blocked streams. It replaces the DOM range between a
// boundary's placeholder comments with the content of the matching
// deferred <template>. The transport must deliver it exactly once,
// after the shell; the renderer appends it to the shell chunk whenever
// deferred chunks will follow.
const SpliceScript = `<script>window.__ebb={swap:function(i){` +
	`var t=document.querySelector('template[data-ebb-chunk="'+i+'"]');if(!t)return;` +
	`var w=document.createTreeWalker(document.body,128),o=null,c=null,n;` +
	`while(n=w.nextNode()){if(n.data=="ebb-o:"+i)o=n;else if(n.data=="ebb-c:"+i){c=n;break}}` +
	`if(o&&c){while(o.nextSibling&&o.nextSibling!=c)o.nextSibling.remove();` +
	`c.parentNode.insertBefore(t.content.cloneNode(true),c);o.remove();c.remove()}` +
	`t.remove();var s=document.querySelector('script[data-ebb-swap="'+i+'"]');if(s)s.remove()}};</script>`

// frameChunk wraps a deferred fragment in its transport framing: an
// inert template carrying the markup plus the swap call that splices
// it into place.
func frameChunk(token string, html []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(html) + 128)
	buf.WriteString(`<template data-ebb-chunk="`)
	buf.WriteString(token)
	buf.WriteString(`">`)
	buf.Write(html)
	buf.WriteString(`</template><script data-ebb-swap="`)
	buf.WriteString(token)
	buf.WriteString(`">__ebb.swap("`)
	buf.WriteString(token)
	buf.WriteString(`")</script>`)
	return buf.Bytes()
}
