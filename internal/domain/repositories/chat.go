package repositories

import (
	"context"
	"time"

	"arcai/internal/domain/models"
)

// SessionRepository defines data access operations for chat sessions
type SessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session owned by the user
	GetByID(ctx context.Context, id, userID string) (*models.Session, error)

	// List lists the user's sessions, most recently updated first
	List(ctx context.Context, userID string) ([]models.Session, error)

	// UpdateTitle renames a session
	UpdateTitle(ctx context.Context, id, userID, title string) error

	// UpdateCanvas persists the canvas snapshot columns
	UpdateCanvas(ctx context.Context, id, userID string, content, mode, language *string) error

	// Touch bumps updated_at after message activity
	Touch(ctx context.Context, id, userID string) error

	// SoftDelete marks a session deleted without removing its rows
	SoftDelete(ctx context.Context, id, userID string) error
}

// MessageRepository defines data access operations for chat messages
type MessageRepository interface {
	// Create creates a new message
	Create(ctx context.Context, msg *models.Message) error

	// GetByID retrieves a message by ID
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListBySession lists a session's messages in creation order
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)

	// ListBySessionPage lists one page of a session's messages in creation
	// order: up to limit messages created strictly before the cursor. A zero
	// cursor means the newest page
	ListBySessionPage(ctx context.Context, sessionID string, limit int, before time.Time) ([]models.Message, error)

	// UpdateStatus transitions a message's status
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdateContent rewrites a user message's content during an edit
	UpdateContent(ctx context.Context, id, content string) error

	// Complete writes the final assistant payload and terminal status
	Complete(ctx context.Context, msg *models.Message) error

	// Fail marks a message errored or cancelled, writing the reason and the
	// content to keep (partial text on cancel, fallback text on error)
	Fail(ctx context.Context, id, status, reason, content string) error

	// DeleteAfter removes all messages in a session created after the cutoff
	DeleteAfter(ctx context.Context, sessionID string, after time.Time) error

	// DeleteBySession removes every message in a session
	DeleteBySession(ctx context.Context, sessionID string) error
}
