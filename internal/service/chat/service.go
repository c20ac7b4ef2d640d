// Package chat implements the session store and message pipeline: session
// CRUD, message send/edit with intent routing, canvas snapshots, and the
// handoff to the streaming executor.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"arcai/internal/bus"
	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
	"arcai/internal/service/llm"
	"arcai/internal/service/search/external"
	"arcai/internal/service/stream"
)

// DefaultTitle is the title given to freshly created sessions. The title
// worker replaces it after the first completed exchange.
const DefaultTitle = "New Chat"

// ImageGenerator produces images for an image-mode chat message and
// finalizes the placeholder itself. Implemented by the image service.
type ImageGenerator interface {
	GenerateToMessage(ctx context.Context, userID, messageID, prompt string)
}

// Deps bundles the service's collaborators.
type Deps struct {
	Sessions     repositories.SessionRepository
	Messages     repositories.MessageRepository
	Prefs        repositories.UserPreferencesRepository
	Tx           repositories.TransactionManager
	Executors    *stream.Registry
	Providers    *llm.Registry
	Searcher     external.SearchClient
	Images       ImageGenerator
	Events       *bus.Bus
	DefaultModel string
	Logger       *slog.Logger
}

// Service is the chat session store.
type Service struct {
	sessions     repositories.SessionRepository
	messages     repositories.MessageRepository
	prefs        repositories.UserPreferencesRepository
	tx           repositories.TransactionManager
	executors    *stream.Registry
	providers    *llm.Registry
	searcher     external.SearchClient
	images       ImageGenerator
	events       *bus.Bus
	defaultModel string
	logger       *slog.Logger
}

// NewService creates the chat service.
func NewService(deps Deps) *Service {
	return &Service{
		sessions:     deps.Sessions,
		messages:     deps.Messages,
		prefs:        deps.Prefs,
		tx:           deps.Tx,
		executors:    deps.Executors,
		providers:    deps.Providers,
		searcher:     deps.Searcher,
		images:       deps.Images,
		events:       deps.Events,
		defaultModel: deps.DefaultModel,
		logger:       deps.Logger,
	}
}

// CreateSession creates a session for the user. An empty title gets the
// default placeholder title.
func (s *Service) CreateSession(ctx context.Context, userID, title string) (*models.Session, error) {
	if title == "" {
		title = DefaultTitle
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessions lists the user's sessions, most recently updated first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.List(ctx, userID)
}

// GetSession retrieves one session.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	return s.sessions.GetByID(ctx, sessionID, userID)
}

// RenameSessionRequest is the PATCH body for a session.
type RenameSessionRequest struct {
	Title string `json:"title"`
}

// Validate implements request validation.
func (r RenameSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// RenameSession renames a session.
func (s *Service) RenameSession(ctx context.Context, userID, sessionID string, req RenameSessionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	return s.sessions.UpdateTitle(ctx, sessionID, userID, req.Title)
}

// DeleteSession soft-deletes a session. Its messages stay in place for the
// retention window.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return s.sessions.SoftDelete(ctx, sessionID, userID)
}

// GetCanvas returns the session's persisted canvas snapshot as view state.
func (s *Service) GetCanvas(ctx context.Context, userID, sessionID string) (*models.CanvasState, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	state := &models.CanvasState{}
	if session.CanvasContent != nil {
		state.Open = true
		state.Content = *session.CanvasContent
		state.Language = session.CanvasLanguage
		if session.CanvasMode != nil {
			state.Mode = *session.CanvasMode
		}
	}

	return state, nil
}

// UpdateCanvasRequest is the PUT body for a canvas snapshot.
type UpdateCanvasRequest struct {
	Content  string  `json:"content"`
	Mode     string  `json:"mode"`
	Language *string `json:"language,omitempty"`
}

// Validate implements request validation.
func (r UpdateCanvasRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.Required, validation.In("code", "writing")),
	)
}

// UpdateCanvas persists an explicit canvas save from the client.
func (s *Service) UpdateCanvas(ctx context.Context, userID, sessionID string, req UpdateCanvasRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	content := req.Content
	mode := req.Mode
	if err := s.sessions.UpdateCanvas(ctx, sessionID, userID, &content, &mode, req.Language); err != nil {
		return err
	}

	s.events.CanvasUpdated.Publish(bus.CanvasUpdated{
		SessionID: sessionID,
		UserID:    userID,
		Mode:      mode,
	})

	return nil
}
