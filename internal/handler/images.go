package handler

import (
	"log/slog"
	"net/http"

	"arcai/internal/httputil"
	"arcai/internal/service/image"
)

// ImagesHandler handles image generation, edit and analysis requests.
type ImagesHandler struct {
	images *image.Service
	logger *slog.Logger
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(imageService *image.Service, logger *slog.Logger) *ImagesHandler {
	return &ImagesHandler{images: imageService, logger: logger}
}

// Generate produces one image from a prompt.
// POST /api/images/generate
func (h *ImagesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req image.GenerateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.images.Generate(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Edit produces a new image from a prompt and base images.
// POST /api/images/edit
func (h *ImagesHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req image.EditRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.images.Edit(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Analyze answers a question about attached images.
// POST /api/images/analyze
func (h *ImagesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req image.AnalyzeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.images.Analyze(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
