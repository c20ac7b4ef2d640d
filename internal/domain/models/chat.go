package models

import (
	"time"
)

// Message type constants. The type decides which surface renders the
// message on the client and which pipeline produced it.
const (
	MessageTypeText            = "text"
	MessageTypeImage           = "image"
	MessageTypeImageGenerating = "image_generating"
	MessageTypeVoice           = "voice"
	MessageTypeCanvas          = "canvas"
	MessageTypeCode            = "code"
)

// Message status constants. A message moves pending → streaming → one of
// the terminal states; user messages are created directly as complete.
const (
	MessageStatusPending   = "pending"
	MessageStatusStreaming = "streaming"
	MessageStatusComplete  = "complete"
	MessageStatusCancelled = "cancelled"
	MessageStatusError     = "error"
)

// Session represents one chat session: an ordered message history plus the
// persisted canvas snapshot for the code/writing surface.
type Session struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	Title          string     `json:"title" db:"title"`
	CanvasContent  *string    `json:"canvas_content,omitempty" db:"canvas_content"`
	CanvasMode     *string    `json:"canvas_mode,omitempty" db:"canvas_mode"` // "code" or "writing"
	CanvasLanguage *string    `json:"canvas_language,omitempty" db:"canvas_language"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Message is one chat turn. Assistant messages are created as a pending
// placeholder and mutated in place while streaming; user messages are
// immutable except through an explicit edit.
//
// MemoryAction records which auxiliary tool (if any) produced the message,
// e.g. {"tool": "web_search", "sources": [...]}. Stored as JSONB.
type Message struct {
	ID           string                 `json:"id" db:"id"`
	SessionID    string                 `json:"session_id" db:"session_id"`
	Role         string                 `json:"role" db:"role"` // "user" or "assistant"
	Type         string                 `json:"type" db:"type"`
	Content      string                 `json:"content" db:"content"`
	Status       string                 `json:"status" db:"status"`
	Error        *string                `json:"error,omitempty" db:"error"`
	ImageURLs    []string               `json:"image_urls,omitempty" db:"image_urls"`
	CodeLanguage *string                `json:"code_language,omitempty" db:"code_language"`
	CodeLabel    *string                `json:"code_label,omitempty" db:"code_label"`
	MemoryAction map[string]interface{} `json:"memory_action,omitempty" db:"memory_action"`
	Model        *string                `json:"model,omitempty" db:"model"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
}

// CanvasState is the transient view of the canvas surface carried in
// session responses. It is rebuilt per streaming session and persisted
// only via the snapshot columns on Session.
type CanvasState struct {
	Open      bool    `json:"open"`
	Mode      string  `json:"mode"` // "code" or "writing"
	Content   string  `json:"content"`
	Language  *string `json:"language,omitempty"`
	Streaming bool    `json:"streaming"`
}
