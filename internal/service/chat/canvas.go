package chat

import (
	"context"
)

// StartCanvasWorker consumes canvas-updated events and records canvas
// activity, whether the snapshot came from a stream completion or an
// explicit save. Runs until ctx is cancelled.
func (s *Service) StartCanvasWorker(ctx context.Context) {
	events, unsubscribe := s.events.CanvasUpdated.Subscribe(16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.logger.Info("canvas updated",
				"session_id", event.SessionID,
				"user_id", event.UserID,
				"mode", event.Mode,
			)
		}
	}
}
