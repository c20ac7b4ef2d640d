package handler

import (
	"net/http"

	"arcai/internal/capabilities"
	"arcai/internal/httputil"
)

// ModelsHandler serves the model-capability registry.
type ModelsHandler struct {
	registry *capabilities.Registry
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// Capabilities returns every provider's models and limits.
// GET /api/models/capabilities
func (h *ModelsHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.All())
}
