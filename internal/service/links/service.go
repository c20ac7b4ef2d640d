// Package links implements saved bookmarks grouped into named lists, with a
// device-sync merge that always yields exactly one default list.
package links

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// Service manages a user's link lists.
type Service struct {
	lists  repositories.LinkListRepository
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewService creates the links service.
func NewService(lists repositories.LinkListRepository, tx repositories.TransactionManager, logger *slog.Logger) *Service {
	return &Service{lists: lists, tx: tx, logger: logger}
}

// GetAll returns the user's lists. The default list is synthesized in the
// response if the stored state omits it, so clients can rely on it existing.
func (s *Service) GetAll(ctx context.Context, userID string) ([]models.LinkList, error) {
	stored, err := s.lists.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Merge(userID, nil, stored), nil
}

// CreateListRequest is the POST body for a new list.
type CreateListRequest struct {
	Name string `json:"name"`
}

// Validate implements request validation.
func (r CreateListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CreateList creates a new empty named list.
func (s *Service) CreateList(ctx context.Context, userID string, req CreateListRequest) (*models.LinkList, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	now := time.Now()
	list := &models.LinkList{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Links:     []models.SavedLink{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.lists.Upsert(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList removes a list. The default list cannot be deleted.
func (s *Service) DeleteList(ctx context.Context, userID, listID string) error {
	if listID == models.DefaultLinkListID {
		return fmt.Errorf("%w: the default list cannot be deleted", domain.ErrValidation)
	}
	return s.lists.Delete(ctx, listID, userID)
}

// SaveLinkRequest is the POST body for saving a bookmark into a list.
type SaveLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Validate implements request validation.
func (r SaveLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.URL, validation.Required, is.URL),
	)
}

// SaveLink appends a bookmark to the named list, creating the default list
// on first save if it does not exist yet.
func (s *Service) SaveLink(ctx context.Context, userID, listID string, req SaveLinkRequest) (*models.SavedLink, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	list, err := s.findList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	link := models.SavedLink{
		ID:      uuid.NewString(),
		Title:   req.Title,
		URL:     req.URL,
		AddedAt: time.Now(),
	}
	list.Links = append(list.Links, link)
	list.UpdatedAt = time.Now()

	if err := s.lists.Upsert(ctx, list); err != nil {
		return nil, err
	}
	return &link, nil
}

// RemoveLink deletes one bookmark from a list.
func (s *Service) RemoveLink(ctx context.Context, userID, listID, linkID string) error {
	list, err := s.findList(ctx, userID, listID)
	if err != nil {
		return err
	}

	kept := list.Links[:0]
	for _, link := range list.Links {
		if link.ID != linkID {
			kept = append(kept, link)
		}
	}
	if len(kept) == len(list.Links) {
		return fmt.Errorf("%w: link not found", domain.ErrNotFound)
	}

	list.Links = kept
	list.UpdatedAt = time.Now()
	return s.lists.Upsert(ctx, list)
}

// SyncRequest is the PUT body for a device sync: the client's full local set.
type SyncRequest struct {
	Lists []models.LinkList `json:"lists"`
}

// Sync merges the device's lists against the stored set and replaces the
// stored state with the result inside one transaction.
func (s *Service) Sync(ctx context.Context, userID string, req SyncRequest) ([]models.LinkList, error) {
	stored, err := s.lists.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := Merge(userID, req.Lists, stored)

	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		return s.lists.ReplaceAll(txCtx, userID, merged)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// findList loads one list, synthesizing the default list when it is asked
// for but not stored yet.
func (s *Service) findList(ctx context.Context, userID, listID string) (*models.LinkList, error) {
	stored, err := s.lists.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range stored {
		if stored[i].ID == listID {
			return &stored[i], nil
		}
	}
	if listID == models.DefaultLinkListID {
		list := models.NewDefaultLinkList(userID)
		return &list, nil
	}
	return nil, fmt.Errorf("%w: list not found", domain.ErrNotFound)
}
