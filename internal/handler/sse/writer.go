package sse

import (
	"fmt"
	"net/http"
)

// CommentWriter writes SSE comment lines (": keepalive") to one client
// connection.
type CommentWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewCommentWriter creates a keep-alive writer over a response.
func NewCommentWriter(w http.ResponseWriter, flusher http.Flusher) *CommentWriter {
	return &CommentWriter{w: w, flusher: flusher}
}

// WriteKeepAlive writes an SSE comment and flushes. Lines starting with a
// colon are ignored by EventSource clients.
func (c *CommentWriter) WriteKeepAlive() error {
	if _, err := fmt.Fprintf(c.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	c.flusher.Flush()
	return nil
}
