package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"arcai/internal/httputil"
	"arcai/internal/service/chat"
)

// ChatHandler handles session, message and canvas HTTP requests.
type ChatHandler struct {
	chat   *chat.Service
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService *chat.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chatService, logger: logger}
}

type createSessionRequest struct {
	Title string `json:"title,omitempty"`
}

// CreateSession creates a new chat session.
// POST /api/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req createSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && r.ContentLength > 0 {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chat.CreateSession(r.Context(), userID, req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// ListSessions lists the user's sessions.
// GET /api/sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// GetSession retrieves one session.
// GET /api/sessions/{id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// RenameSession renames a session.
// PATCH /api/sessions/{id}
func (h *ChatHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	var req chat.RenameSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chat.RenameSession(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSession soft-deletes a session.
// DELETE /api/sessions/{id}
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteSession(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMessages lists one page of a session's messages.
// GET /api/sessions/{id}/messages?limit=50&before=<RFC3339 timestamp>
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	var opts chat.ListMessagesOptions
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			httputil.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}
	if v := r.URL.Query().Get("before"); v != "" {
		before, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid before cursor")
			return
		}
		opts.Before = before
	}

	messages, err := h.chat.ListMessages(r.Context(), httputil.GetUserID(r), r.PathValue("id"), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// SendMessage stores a user message and starts the assistant response.
// POST /api/sessions/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chat.SendMessage(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ClearMessages removes every message in a session.
// DELETE /api/sessions/{id}/messages
func (h *ChatHandler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ClearMessages(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EditMessage rewrites a user message and optionally resends it.
// PATCH /api/messages/{id}
func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.EditMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chat.EditMessage(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetCanvas returns the session's canvas snapshot.
// GET /api/sessions/{id}/canvas
func (h *ChatHandler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	state, err := h.chat.GetCanvas(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, state)
}

// UpdateCanvas persists an explicit canvas save.
// PUT /api/sessions/{id}/canvas
func (h *ChatHandler) UpdateCanvas(w http.ResponseWriter, r *http.Request) {
	var req chat.UpdateCanvasRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chat.UpdateCanvas(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
