package repositories

import (
	"context"

	"arcai/internal/domain/models"
)

// LinkListRepository defines data access operations for saved-link lists
type LinkListRepository interface {
	// GetAll retrieves every list the user owns
	GetAll(ctx context.Context, userID string) ([]models.LinkList, error)

	// Upsert creates or replaces one list
	Upsert(ctx context.Context, list *models.LinkList) error

	// ReplaceAll atomically replaces the user's lists with the given set
	ReplaceAll(ctx context.Context, userID string, lists []models.LinkList) error

	// Delete removes one list
	Delete(ctx context.Context, id, userID string) error
}
