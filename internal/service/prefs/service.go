// Package prefs implements the user preferences service: a namespaced
// settings document (profile, models, ui) with partial updates.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// Service manages user preferences.
type Service struct {
	repo   repositories.UserPreferencesRepository
	logger *slog.Logger
}

// NewService creates the preferences service.
func NewService(repo repositories.UserPreferencesRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// defaultPreferences returns the namespaced structure a new user starts with.
func defaultPreferences(userID uuid.UUID) *models.UserPreferences {
	now := time.Now()
	return &models.UserPreferences{
		UserID: userID,
		Preferences: models.JSONMap{
			"profile": map[string]interface{}{},
			"models":  map[string]interface{}{},
			"ui": map[string]interface{}{
				"theme": "light",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Get retrieves preferences for a user, returning defaults when none are
// stored yet.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	prefs, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	if prefs == nil {
		s.logger.Debug("no preferences found, returning defaults", "user_id", userID)
		prefs = defaultPreferences(userID)
	}

	return prefs, nil
}

// UpdateRequest is the PATCH body. Only the namespaces present in the
// request are replaced; absent namespaces are left untouched.
type UpdateRequest struct {
	Profile *models.ProfilePreferences `json:"profile,omitempty"`
	Models  *models.ModelPreferences   `json:"models,omitempty"`
	UI      map[string]interface{}     `json:"ui,omitempty"`
}

// Update applies a partial preferences update and persists the result.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*models.UserPreferences, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get existing preferences: %w", err)
	}
	if existing == nil {
		existing = defaultPreferences(userID)
	}
	if existing.Preferences == nil {
		existing.Preferences = models.JSONMap{}
	}

	if req.Profile != nil {
		if err := setNamespace(existing.Preferences, "profile", req.Profile); err != nil {
			return nil, fmt.Errorf("update profile namespace: %w", err)
		}
	}
	if req.Models != nil {
		if err := setNamespace(existing.Preferences, "models", req.Models); err != nil {
			return nil, fmt.Errorf("update models namespace: %w", err)
		}
	}
	if req.UI != nil {
		existing.Preferences["ui"] = req.UI
	}

	existing.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	s.logger.Info("user preferences updated",
		"user_id", userID,
		"has_profile", req.Profile != nil,
		"has_models", req.Models != nil,
		"has_ui", req.UI != nil,
	)

	return existing, nil
}

// setNamespace stores a typed namespace struct as a plain map so the whole
// document round-trips through the JSONB column uniformly.
func setNamespace(prefs models.JSONMap, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(data, &asMap); err != nil {
		return err
	}

	prefs[key] = asMap
	return nil
}
