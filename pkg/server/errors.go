package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/view"
)

// serveErrorPage writes a complete minimal error document. Used when a
// render aborts before any byte reached the client.
func (s *Server) serveErrorPage(w http.ResponseWriter, status int) {
	head := render.NewHead()
	head.SetTitle(strconv.Itoa(status) + " " + http.StatusText(status))

	doc := &render.Document{
		Lang: s.lang,
		Head: head,
		Body: view.Main(
			view.Class("ebb-error-page"),
			view.H1(view.Textf("%d %s", status, http.StatusText(status))),
			view.P(view.Text("The page could not be rendered.")),
		),
	}

	sink := &render.CollectSink{}
	if err := s.renderer.RenderDocument(context.Background(), doc, render.Async, sink); err != nil {
		// A static tree cannot fail to render; fall back regardless.
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	w.Write(sink.Concat())
}
