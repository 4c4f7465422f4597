// Package handler implements the HTTP API of the containment editor.
//
// TreeHandler submits edits to the editor's edit goroutine and serves reads
// from the latest published snapshot. Every edit response carries the
// snapshot version published after the edit.
//
// # Errors
//
// Errors are returned as JSON {error, details}. Unknown ids map to 404,
// edits that would create a cycle or touch the global group map to 409, and
// a stopped editor maps to 503.
//
// # Middleware
//
// Chain composes Recover, CORS and Logger around the mux.
package handler
