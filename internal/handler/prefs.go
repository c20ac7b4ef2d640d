package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"arcai/internal/httputil"
	"arcai/internal/service/prefs"
)

// PrefsHandler handles user preference requests.
type PrefsHandler struct {
	prefs  *prefs.Service
	logger *slog.Logger
}

// NewPrefsHandler creates a new preferences handler.
func NewPrefsHandler(prefsService *prefs.Service, logger *slog.Logger) *PrefsHandler {
	return &PrefsHandler{prefs: prefsService, logger: logger}
}

// Get returns the user's preferences.
// GET /api/users/me/preferences
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(httputil.GetUserID(r))
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "invalid user ID")
		return
	}

	result, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Update applies a partial preferences update.
// PATCH /api/users/me/preferences
func (h *PrefsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(httputil.GetUserID(r))
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "invalid user ID")
		return
	}

	var req prefs.UpdateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.prefs.Update(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
