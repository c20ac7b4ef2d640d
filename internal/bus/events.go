package bus

// MessageFinalized is published after an assistant message reaches a
// terminal state and its content is persisted.
type MessageFinalized struct {
	SessionID string
	MessageID string
	UserID    string
	Mode      string
}

// CanvasUpdated is published after a session's canvas snapshot changes,
// whether from a stream completion or an explicit save.
type CanvasUpdated struct {
	SessionID string
	UserID    string
	Mode      string // "code" or "writing"
}

// Bus groups the application topics.
type Bus struct {
	MessageFinalized *Topic[MessageFinalized]
	CanvasUpdated    *Topic[CanvasUpdated]
}

// New creates a Bus with all topics initialized.
func New() *Bus {
	return &Bus{
		MessageFinalized: NewTopic[MessageFinalized](),
		CanvasUpdated:    NewTopic[CanvasUpdated](),
	}
}
