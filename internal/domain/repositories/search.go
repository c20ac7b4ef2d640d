package repositories

import (
	"context"

	"arcai/internal/domain/models"
)

// SearchSessionRepository defines data access operations for search sessions
type SearchSessionRepository interface {
	// Upsert creates or replaces a search session row
	Upsert(ctx context.Context, session *models.SearchSession) error

	// GetByID retrieves a search session owned by the user
	GetByID(ctx context.Context, id, userID string) (*models.SearchSession, error)

	// List lists the user's search sessions, newest first
	List(ctx context.Context, userID string) ([]models.SearchSession, error)

	// Delete removes a search session
	Delete(ctx context.Context, id, userID string) error
}
