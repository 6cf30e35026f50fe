package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ebb-ui/ebb/pkg/render"
	"github.com/ebb-ui/ebb/pkg/resource"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// chunkFrame is the wire format for one streamed chunk. Boundary is
// empty for the shell and for in-order segments.
type chunkFrame struct {
	Boundary string `json:"boundary,omitempty"`
	HTML     string `json:"html"`
	Final    bool   `json:"final,omitempty"`
}

// SocketSink delivers chunks as JSON frames over a WebSocket, for
// clients that splice fragments into an already-loaded page instead of
// parsing an HTML stream.
type SocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocketSink wraps an upgraded connection.
func NewSocketSink(conn *websocket.Conn) *SocketSink {
	return &SocketSink{conn: conn}
}

// Emit implements render.ChunkSink.
func (s *SocketSink) Emit(c render.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(chunkFrame{
		Boundary: c.BoundaryID,
		HTML:     string(c.Bytes),
	})
}

// finish sends the terminal frame.
func (s *SocketSink) finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(chunkFrame{Final: true})
}

// Socket registers a GET route that streams the page body over a
// WebSocket: one JSON frame per chunk, a final frame when every
// boundary has settled, then a normal close. The page body is rendered
// without the document wrapper; the client owns the page it is
// updating.
func (s *Server) Socket(pattern string, mode render.Mode, page PageFunc, opts ...RouteOption) {
	route := pageRoute{pattern: pattern, mode: mode, page: page, lang: s.lang}
	for _, opt := range opts {
		opt(&route)
	}
	if route.cached {
		// Socket streams are never cacheable; only complete documents are.
		s.logger.Warn("route cache ignored", "pattern", pattern, "mode", mode.String())
		route.cached = false
	}

	s.mux.Get(pattern, func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("path", r.URL.Path, "mode", mode.String())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		tracker := resource.NewTracker(r.Context())
		defer tracker.Close()

		ctx := newCtx(r, logger, render.NewHead(), tracker)
		body := route.page(ctx)

		sink := NewSocketSink(conn)
		if err := s.renderer.RenderStream(tracker.Context(), body, mode, s.instrument(mode, sink)); err != nil {
			logger.Error("socket render failed", "error", err)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "render failed"))
			return
		}
		if err := sink.finish(); err != nil {
			logger.Error("socket final frame failed", "error", err)
			return
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
}
