package models

import (
	"encoding/json"
	"fmt"
)

// SSE event type constants for message streaming
const (
	SSEEventStreamStart  = "stream_start"  // Assistant response has begun
	SSEEventMessageDelta = "message_delta" // Incremental content fragment
	SSEEventCatchup      = "catchup"       // Replay of content accumulated so far (reconnection)
	SSEEventMessageDone  = "message_done"  // Response finished successfully
	SSEEventStreamError  = "stream_error"  // Response failed or was cancelled
)

// StreamStartEvent signals that streaming has begun for a message.
// Mode tells the client which surface to open (chat, canvas, code, image).
type StreamStartEvent struct {
	MessageID string `json:"message_id"`
	Mode      string `json:"mode"`
	Model     string `json:"model,omitempty"`
}

// MessageDeltaEvent carries one incremental content fragment.
type MessageDeltaEvent struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// CatchupEvent replays everything accumulated so far for a reconnecting
// client, so it can rebuild the partial message without the lost deltas.
type CatchupEvent struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Mode      string `json:"mode"`
}

// MessageDoneEvent signals successful completion and carries the final
// state the client needs to replace its placeholder.
type MessageDoneEvent struct {
	MessageID    string                 `json:"message_id"`
	Content      string                 `json:"content"`
	Mode         string                 `json:"mode"`
	Label        *string                `json:"label,omitempty"`
	Language     *string                `json:"language,omitempty"`
	ImageURLs    []string               `json:"image_urls,omitempty"`
	WebSources   []SearchResult         `json:"web_sources,omitempty"`
	MemoryAction map[string]interface{} `json:"memory_action,omitempty"`
}

// StreamErrorEvent signals failure or cancellation. Cancelled lets the
// client skip the error toast for user-initiated cancels.
type StreamErrorEvent struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// FormatSSE formats an event for transmission:
//
//	event: event_name
//	data: {"field": "value"}
func FormatSSE(eventType string, data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal SSE event data: %w", err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, string(jsonData)), nil
}

// NewStreamStartEvent creates a stream_start SSE event
func NewStreamStartEvent(messageID, mode, model string) (string, error) {
	return FormatSSE(SSEEventStreamStart, StreamStartEvent{
		MessageID: messageID,
		Mode:      mode,
		Model:     model,
	})
}

// NewMessageDeltaEvent creates a message_delta SSE event
func NewMessageDeltaEvent(messageID, text string) (string, error) {
	return FormatSSE(SSEEventMessageDelta, MessageDeltaEvent{
		MessageID: messageID,
		Text:      text,
	})
}

// NewCatchupEvent creates a catchup SSE event
func NewCatchupEvent(messageID, content, mode string) (string, error) {
	return FormatSSE(SSEEventCatchup, CatchupEvent{
		MessageID: messageID,
		Content:   content,
		Mode:      mode,
	})
}

// NewMessageDoneEvent creates a message_done SSE event
func NewMessageDoneEvent(done MessageDoneEvent) (string, error) {
	return FormatSSE(SSEEventMessageDone, done)
}

// NewStreamErrorEvent creates a stream_error SSE event
func NewStreamErrorEvent(messageID, errorMsg string, cancelled bool) (string, error) {
	return FormatSSE(SSEEventStreamError, StreamErrorEvent{
		MessageID: messageID,
		Error:     errorMsg,
		Cancelled: cancelled,
	})
}
