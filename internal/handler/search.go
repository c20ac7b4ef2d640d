package handler

import (
	"log/slog"
	"net/http"

	"arcai/internal/httputil"
	"arcai/internal/service/search"
)

// SearchHandler handles research-session HTTP requests.
type SearchHandler struct {
	search *search.Service
	logger *slog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService *search.Service, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{search: searchService, logger: logger}
}

// RunSearch runs a research query and returns the new session.
// POST /api/search
func (h *SearchHandler) RunSearch(w http.ResponseWriter, r *http.Request) {
	var req search.RunSearchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.search.RunSearch(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// ListSessions lists the user's search sessions.
// GET /api/search/sessions
func (h *SearchHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.search.List(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// GetSession retrieves one search session.
// GET /api/search/sessions/{id}
func (h *SearchHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.search.Get(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// Followup appends a follow-up exchange to a session thread.
// POST /api/search/sessions/{id}/followup
func (h *SearchHandler) Followup(w http.ResponseWriter, r *http.Request) {
	var req search.FollowupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.search.Followup(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SyncSession merges a device copy against the stored copy.
// PUT /api/search/sessions/{id}
func (h *SearchHandler) SyncSession(w http.ResponseWriter, r *http.Request) {
	var req search.SyncRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.search.Sync(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// DeleteSession removes a search session.
// DELETE /api/search/sessions/{id}
func (h *SearchHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.search.Delete(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
