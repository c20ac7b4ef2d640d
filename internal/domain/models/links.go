package models

import (
	"time"
)

// DefaultLinkListID is the list every user always has. It is synthesized
// during merge if the persisted state omits it.
const DefaultLinkListID = "default"

// SavedLink is one user bookmark. Created by explicit save, removed by
// explicit delete; there is no automatic expiry.
type SavedLink struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	AddedAt time.Time `json:"added_at"`
}

// LinkList groups saved links under a user-chosen name. Links are stored
// as a JSONB array on the list row.
type LinkList struct {
	ID        string      `json:"id" db:"id"`
	UserID    string      `json:"-" db:"user_id"`
	Name      string      `json:"name" db:"name"`
	Links     []SavedLink `json:"links" db:"links"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// NewDefaultLinkList returns a fresh default list for a user.
func NewDefaultLinkList(userID string) LinkList {
	now := time.Now()
	return LinkList{
		ID:        DefaultLinkListID,
		UserID:    userID,
		Name:      "Saved",
		Links:     []SavedLink{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
