package chat

import (
	"context"
	"strings"

	"arcai/internal/bus"
	"arcai/internal/intent"
)

const titleMaxRunes = 60

// StartTitleWorker consumes message-finalized events and titles sessions
// still carrying the placeholder title after their first exchange. Runs
// until ctx is cancelled.
func (s *Service) StartTitleWorker(ctx context.Context) {
	events, unsubscribe := s.events.MessageFinalized.Subscribe(16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.maybeTitleSession(ctx, event)
		}
	}
}

func (s *Service) maybeTitleSession(ctx context.Context, event bus.MessageFinalized) {
	session, err := s.sessions.GetByID(ctx, event.SessionID, event.UserID)
	if err != nil {
		return
	}
	if session.Title != DefaultTitle {
		return
	}

	msgs, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return
	}

	for _, msg := range msgs {
		if msg.Role != "user" || msg.Content == "" {
			continue
		}

		title := titleFromContent(msg.Content)
		if title == "" {
			return
		}

		if err := s.sessions.UpdateTitle(ctx, session.ID, event.UserID, title); err != nil {
			s.logger.Warn("failed to title session", "session_id", session.ID, "error", err)
		}
		return
	}
}

// titleFromContent derives a session title from the first user message,
// stripping any mode prefix.
func titleFromContent(content string) string {
	cls := intent.Classify(content, intent.Surface{})
	title := strings.TrimSpace(cls.Prompt)
	if title == intent.DefaultImagePrompt && cls.Mode == intent.ModeImage {
		title = "Image: " + title
	}

	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = strings.TrimSpace(string(runes[:titleMaxRunes])) + "..."
	}
	return title
}
