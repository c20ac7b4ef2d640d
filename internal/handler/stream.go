package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"arcai/internal/domain/models"
	"arcai/internal/handler/sse"
	"arcai/internal/httputil"
	"arcai/internal/service/chat"
	"arcai/internal/service/stream"
)

// dbPollInterval paces the database fallback for messages that have no live
// executor (image generation runs outside the stream registry).
const dbPollInterval = 2 * time.Second

// StreamHandler serves assistant responses over SSE and handles cancels.
type StreamHandler struct {
	chat      *chat.Service
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(chatService *chat.Service, sseConfig *sse.Config, logger *slog.Logger) *StreamHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &StreamHandler{chat: chatService, sseConfig: sseConfig, logger: logger}
}

// StreamMessage streams a message's response via Server-Sent Events.
// GET /api/messages/{id}/stream
func (h *StreamHandler) StreamMessage(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	if _, err := uuid.Parse(messageID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid message ID format")
		return
	}

	// Ownership check before any stream state is touched.
	msg, err := h.chat.GetMessage(r.Context(), userID, messageID)
	if err != nil {
		handleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
	keepAliveDone := keepAlive.Start(sse.NewCommentWriter(w, flusher), h.logger)
	defer keepAlive.Stop()

	executor := h.chat.Executor(messageID)
	if executor == nil {
		h.streamFromDatabase(w, r, flusher, keepAliveDone, msg)
		return
	}

	clientID := uuid.NewString()
	eventChan := executor.AddClient(clientID)
	defer executor.RemoveClient(clientID)

	// Catchup runs on the bidirectional channel so replayed events stay
	// ordered ahead of live ones.
	if err := executor.HandleReconnection(r.Context(), executor.GetClientChannel(clientID)); err != nil {
		h.logger.Warn("catchup failed, client will receive live events only",
			"message_id", messageID, "client_id", clientID, "error", err)
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAliveDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// streamFromDatabase serves a message that has no live executor: terminal
// messages replay their final state immediately; in-flight ones (image
// generation) are polled until they finish or the client goes away.
func (h *StreamHandler) streamFromDatabase(w http.ResponseWriter, r *http.Request, flusher http.Flusher, keepAliveDone <-chan struct{}, msg *models.Message) {
	userID := httputil.GetUserID(r)
	ticker := time.NewTicker(dbPollInterval)
	defer ticker.Stop()

	for {
		if h.writeMessageState(w, flusher, msg) {
			return
		}

		select {
		case <-ticker.C:
			refreshed, err := h.chat.GetMessage(r.Context(), userID, msg.ID)
			if err != nil {
				h.logger.Warn("message poll failed", "message_id", msg.ID, "error", err)
				return
			}
			msg = refreshed
		case <-keepAliveDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// writeMessageState emits the message's current state as SSE events and
// reports whether the message is terminal.
func (h *StreamHandler) writeMessageState(w http.ResponseWriter, flusher http.Flusher, msg *models.Message) bool {
	switch msg.Status {
	case models.MessageStatusComplete:
		h.writeEvent(w, flusher, func() (string, error) {
			return models.NewCatchupEvent(msg.ID, msg.Content, msg.Type)
		})
		h.writeEvent(w, flusher, func() (string, error) {
			return models.NewMessageDoneEvent(models.MessageDoneEvent{
				MessageID:    msg.ID,
				Content:      msg.Content,
				Mode:         msg.Type,
				Label:        msg.CodeLabel,
				Language:     msg.CodeLanguage,
				ImageURLs:    msg.ImageURLs,
				MemoryAction: msg.MemoryAction,
			})
		})
		return true
	case models.MessageStatusError, models.MessageStatusCancelled:
		reason := stream.FallbackErrorMessage
		if msg.Error != nil {
			reason = *msg.Error
		}
		h.writeEvent(w, flusher, func() (string, error) {
			return models.NewStreamErrorEvent(msg.ID, reason, msg.Status == models.MessageStatusCancelled)
		})
		return true
	default:
		return false
	}
}

func (h *StreamHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, build func() (string, error)) {
	event, err := build()
	if err != nil {
		h.logger.Error("failed to build SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprint(w, event); err != nil {
		return
	}
	flusher.Flush()
}

// CancelMessage interrupts the executor for one message.
// POST /api/messages/{id}/cancel
func (h *StreamHandler) CancelMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.CancelMessage(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
