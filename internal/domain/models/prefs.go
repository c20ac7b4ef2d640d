package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences holds user-specific settings in a single namespaced
// JSONB column: {profile, models, ui}.
type UserPreferences struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Preferences JSONMap   `json:"preferences" db:"preferences"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProfilePreferences is the profile namespace: what the assistant should
// know about the user when generating responses.
type ProfilePreferences struct {
	DisplayName  *string `json:"display_name"`
	Occupation   *string `json:"occupation"`
	Instructions *string `json:"instructions"`
}

// ModelPreferences is the models namespace.
type ModelPreferences struct {
	DefaultChatModel  *string `json:"default_chat_model"`
	DefaultImageModel *string `json:"default_image_model"`
}

// GetProfile extracts the profile namespace with type safety.
func (up *UserPreferences) GetProfile() (*ProfilePreferences, error) {
	return extractNamespace[ProfilePreferences](up.Preferences, "profile")
}

// GetModels extracts the models namespace with type safety.
func (up *UserPreferences) GetModels() (*ModelPreferences, error) {
	return extractNamespace[ModelPreferences](up.Preferences, "models")
}

func extractNamespace[T any](prefs JSONMap, key string) (*T, error) {
	var out T
	if prefs == nil {
		return &out, nil
	}
	raw, ok := prefs[key]
	if !ok {
		return &out, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
