// Package server is the HTTP layer over the render engine. Routes are
// registered per delivery mode; handlers manage the render-scoped
// resource tracker, stream chunks with flushing, serve async documents
// from an optional cache, and expose a WebSocket chunk transport.
package server
