package repositories

import (
	"context"

	"github.com/google/uuid"

	"arcai/internal/domain/models"
)

// UserPreferencesRepository defines data access operations for user preferences
type UserPreferencesRepository interface {
	// GetByUserID retrieves preferences for a user, nil when none exist yet
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error)

	// Upsert creates or updates user preferences
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}
