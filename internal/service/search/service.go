// Package search implements research sessions: a web query answered with
// cited sources, follow-up threads on the answer or on a single source, and
// the device-sync reconciliation policy.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
	"arcai/internal/service/llm"
	"arcai/internal/service/search/external"
)

const (
	defaultMaxResults = 5

	answerPrompt = "You are Arc, a research assistant. Answer the question using the web results below. Write a well-structured markdown answer and cite sources inline as [1], [2] matching the numbered list."

	followupPrompt = "You are Arc, a research assistant continuing a conversation about an earlier research answer. Use the research context below; cite sources as [n] where relevant."

	sourceFollowupPrompt = "You are Arc, a research assistant. The user is asking about one specific source from an earlier search. Ground your answers in that source."
)

// Deps bundles the search service's collaborators.
type Deps struct {
	Sessions     repositories.SearchSessionRepository
	Providers    *llm.Registry
	Searcher     external.SearchClient
	DefaultModel string
	Logger       *slog.Logger
}

// Service runs research queries and manages search sessions.
type Service struct {
	sessions     repositories.SearchSessionRepository
	providers    *llm.Registry
	searcher     external.SearchClient
	defaultModel string
	logger       *slog.Logger
}

// NewService creates the search service.
func NewService(deps Deps) *Service {
	return &Service{
		sessions:     deps.Sessions,
		providers:    deps.Providers,
		searcher:     deps.Searcher,
		defaultModel: deps.DefaultModel,
		logger:       deps.Logger,
	}
}

// RunSearchRequest is the POST body for a new research query.
type RunSearchRequest struct {
	Query string `json:"query"`
	Model string `json:"model,omitempty"`
}

// Validate implements request validation.
func (r RunSearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, 2000)),
	)
}

// RunSearch performs a web search, asks the model for a cited answer over
// the results, and persists the whole exchange as a new search session.
func (s *Service) RunSearch(ctx context.Context, userID string, req RunSearchRequest) (*models.SearchSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	resp, err := s.searcher.Search(ctx, req.Query, external.SearchOptions{
		MaxResults: defaultMaxResults,
		SearchType: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	sources := convertResults(resp.Results)

	provider, model, err := s.resolveProvider(req.Model)
	if err != nil {
		return nil, err
	}

	answer, err := provider.Generate(ctx, &llm.Request{
		Model:  model,
		System: answerPrompt + "\n\n" + formatSources(sources),
		Messages: []llm.ChatMessage{
			{Role: "user", Content: req.Query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate search answer: %w", err)
	}

	now := time.Now()
	session := &models.SearchSession{
		ID:               uuid.NewString(),
		UserID:           userID,
		Query:            req.Query,
		FormattedContent: answer.Content,
		Results:          sources,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// FollowupRequest is the POST body for a follow-up message. A nil SourceURL
// targets the session's summary thread; otherwise the thread for that source.
type FollowupRequest struct {
	Message   string  `json:"message"`
	SourceURL *string `json:"source_url,omitempty"`
	Model     string  `json:"model,omitempty"`
}

// Validate implements request validation.
func (r FollowupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, 10000)),
	)
}

// Followup appends a user message to one of the session's threads, generates
// the assistant reply, and persists the updated session.
func (s *Service) Followup(ctx context.Context, userID, sessionID string, req FollowupRequest) (*models.SearchSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	var (
		thread []models.SearchMessage
		system string
	)
	if req.SourceURL != nil {
		source, ok := findSource(session.Results, *req.SourceURL)
		if !ok {
			return nil, fmt.Errorf("%w: source %q is not part of this session", domain.ErrValidation, *req.SourceURL)
		}
		if session.SourceConversations == nil {
			session.SourceConversations = make(map[string][]models.SearchMessage)
		}
		thread = session.SourceConversations[*req.SourceURL]
		system = sourceFollowupSystem(session, source)
	} else {
		thread = session.SummaryConversation
		system = followupSystem(session)
	}

	now := time.Now()
	thread = append(thread, models.SearchMessage{Role: "user", Content: req.Message, CreatedAt: now})

	provider, model, err := s.resolveProvider(req.Model)
	if err != nil {
		return nil, err
	}

	answer, err := provider.Generate(ctx, &llm.Request{
		Model:    model,
		System:   system,
		Messages: threadToChat(thread),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate follow-up: %w", err)
	}

	thread = append(thread, models.SearchMessage{Role: "assistant", Content: answer.Content, CreatedAt: time.Now()})

	if req.SourceURL != nil {
		session.SourceConversations[*req.SourceURL] = thread
	} else {
		session.SummaryConversation = thread
	}
	session.UpdatedAt = time.Now()

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// List lists the user's search sessions, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.SearchSession, error) {
	return s.sessions.List(ctx, userID)
}

// Get retrieves one search session.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*models.SearchSession, error) {
	return s.sessions.GetByID(ctx, sessionID, userID)
}

// Delete removes a search session.
func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

// SyncRequest is the PUT body for a device sync: the client's local copy of
// the session.
type SyncRequest struct {
	Query               string                            `json:"query"`
	FormattedContent    string                            `json:"formatted_content"`
	Results             []models.SearchResult             `json:"results"`
	SummaryConversation []models.SearchMessage            `json:"summary_conversation"`
	SourceConversations map[string][]models.SearchMessage `json:"source_conversations"`
	UpdatedAt           time.Time                         `json:"updated_at"`
}

// Validate implements request validation.
func (r SyncRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, 2000)),
	)
}

// Sync merges a device copy against the stored copy and persists the result.
// A session unknown to the server is created from the device copy as-is.
func (s *Service) Sync(ctx context.Context, userID, sessionID string, req SyncRequest) (*models.SearchSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	local := models.SearchSession{
		ID:                  sessionID,
		UserID:              userID,
		Query:               req.Query,
		FormattedContent:    req.FormattedContent,
		Results:             req.Results,
		SummaryConversation: req.SummaryConversation,
		SourceConversations: req.SourceConversations,
		UpdatedAt:           req.UpdatedAt,
	}

	stored, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	merged := local
	if stored != nil {
		merged = Merge(local, *stored)
	}
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = time.Now()
	}
	merged.UpdatedAt = time.Now()

	if err := s.sessions.Upsert(ctx, &merged); err != nil {
		return nil, err
	}

	return &merged, nil
}

func (s *Service) resolveProvider(override string) (llm.Provider, string, error) {
	model := override
	if model == "" {
		model = s.defaultModel
	}
	return s.providers.ForModel(model)
}

func followupSystem(session *models.SearchSession) string {
	var sb strings.Builder
	sb.WriteString(followupPrompt)
	sb.WriteString("\n\nOriginal question: ")
	sb.WriteString(session.Query)
	sb.WriteString("\n\nResearch answer:\n")
	sb.WriteString(session.FormattedContent)
	sb.WriteString("\n\nSources:\n")
	sb.WriteString(formatSources(session.Results))
	return sb.String()
}

func sourceFollowupSystem(session *models.SearchSession, source models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(sourceFollowupPrompt)
	sb.WriteString("\n\nOriginal question: ")
	sb.WriteString(session.Query)
	sb.WriteString("\n\nSource: ")
	sb.WriteString(source.Title)
	sb.WriteString(" — ")
	sb.WriteString(source.URL)
	if source.Snippet != "" {
		sb.WriteString("\n")
		sb.WriteString(source.Snippet)
	}
	return sb.String()
}

// formatSources renders results as a numbered reference list for prompts.
func formatSources(sources []models.SearchResult) string {
	var sb strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, src.Title, src.URL)
		if src.Snippet != "" {
			sb.WriteString(src.Snippet)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func findSource(results []models.SearchResult, url string) (models.SearchResult, bool) {
	for _, r := range results {
		if r.URL == url {
			return r, true
		}
	}
	return models.SearchResult{}, false
}

func threadToChat(thread []models.SearchMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(thread))
	for i, msg := range thread {
		out[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

func convertResults(results []external.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, len(results))
	for i, r := range results {
		out[i] = models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
		}
	}
	return out
}
