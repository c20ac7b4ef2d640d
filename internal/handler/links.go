package handler

import (
	"log/slog"
	"net/http"

	"arcai/internal/httputil"
	"arcai/internal/service/links"
)

// LinksHandler handles saved-link HTTP requests.
type LinksHandler struct {
	links  *links.Service
	logger *slog.Logger
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(linksService *links.Service, logger *slog.Logger) *LinksHandler {
	return &LinksHandler{links: linksService, logger: logger}
}

// GetAll returns the user's link lists.
// GET /api/links
func (h *LinksHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	lists, err := h.links.GetAll(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, lists)
}

// Sync merges the device's lists against the stored set.
// PUT /api/links
func (h *LinksHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req links.SyncRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, err := h.links.Sync(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, merged)
}

// CreateList creates a new named list.
// POST /api/links/lists
func (h *LinksHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req links.CreateListRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.links.CreateList(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, list)
}

// DeleteList removes a named list.
// DELETE /api/links/{listID}
func (h *LinksHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.links.DeleteList(r.Context(), httputil.GetUserID(r), r.PathValue("listID")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SaveLink appends a bookmark to a list.
// POST /api/links/{listID}
func (h *LinksHandler) SaveLink(w http.ResponseWriter, r *http.Request) {
	var req links.SaveLinkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.links.SaveLink(r.Context(), httputil.GetUserID(r), r.PathValue("listID"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, link)
}

// RemoveLink deletes one bookmark from a list.
// DELETE /api/links/{listID}/{linkID}
func (h *LinksHandler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	err := h.links.RemoveLink(r.Context(), httputil.GetUserID(r), r.PathValue("listID"), r.PathValue("linkID"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
