package chat

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"arcai/internal/bus"
	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/intent"
	"arcai/internal/service/llm"
	"arcai/internal/service/search/external"
	"arcai/internal/service/stream"
)

// historyLimit caps how many prior messages are sent to the model.
const historyLimit = 20

// SendMessageRequest is the POST body for a new message.
//
// Mode forces a response mode, bypassing classification; CanvasOpen and
// CanvasMode feed the canvas-edit heuristic when Mode is empty.
type SendMessageRequest struct {
	Content    string `json:"content"`
	Mode       string `json:"mode,omitempty"`
	Model      string `json:"model,omitempty"`
	CanvasOpen bool   `json:"canvas_open,omitempty"`
	CanvasMode string `json:"canvas_mode,omitempty"`
}

// Validate implements request validation.
func (r SendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 20000)),
		validation.Field(&r.Mode, validation.In(
			intent.ModeText,
			intent.ModeImage,
			intent.ModeCode,
			intent.ModeCanvas,
			intent.ModeSearch,
			intent.ModeCanvasEdit,
		)),
	)
}

// SendMessageResult carries the stored user message, the assistant
// placeholder, and the resolved mode back to the client.
type SendMessageResult struct {
	UserMessage      *models.Message `json:"user_message"`
	AssistantMessage *models.Message `json:"assistant_message"`
	Mode             string          `json:"mode"`
}

// SendMessage classifies the input, stores the user message plus an
// assistant placeholder, and starts the response pipeline for the resolved
// mode. The returned placeholder is what the client subscribes to.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID string, req SendMessageRequest) (*SendMessageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	cls := s.classify(req)

	now := time.Now()
	userMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      "user",
		Type:      models.MessageTypeText,
		Content:   req.Content,
		Status:    models.MessageStatusComplete,
		CreatedAt: now,
	}

	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	if err := s.sessions.Touch(ctx, session.ID, userID); err != nil {
		s.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
	}

	placeholder, err := s.launchResponse(ctx, userID, session, cls, req.Model)
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{
		UserMessage:      userMsg,
		AssistantMessage: placeholder,
		Mode:             cls.Mode,
	}, nil
}

// classify resolves the response mode: an explicit client mode wins, else
// the input router decides from the text and the canvas state.
func (s *Service) classify(req SendMessageRequest) intent.Classification {
	if req.Mode != "" {
		return intent.Classification{
			Mode:   req.Mode,
			Prompt: intent.ExtractPrefixPrompt(req.Content, req.Mode),
			Forced: true,
		}
	}

	return intent.Classify(req.Content, intent.Surface{
		CanvasOpen: req.CanvasOpen,
		CanvasMode: req.CanvasMode,
	})
}

// launchResponse creates the assistant placeholder and starts the pipeline
// for the classified mode. Image mode generates in the background without
// streaming; every other mode goes through a stream executor.
func (s *Service) launchResponse(ctx context.Context, userID string, session *models.Session, cls intent.Classification, modelOverride string) (*models.Message, error) {
	placeholderType := models.MessageTypeText
	if cls.Mode == intent.ModeImage {
		placeholderType = models.MessageTypeImageGenerating
	}

	// Created strictly after the user message so creation order sorts
	placeholder := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      "assistant",
		Type:      placeholderType,
		Status:    models.MessageStatusPending,
		CreatedAt: time.Now().Add(time.Millisecond),
	}

	if err := s.messages.Create(ctx, placeholder); err != nil {
		return nil, err
	}

	if cls.Mode == intent.ModeImage {
		go s.images.GenerateToMessage(context.Background(), userID, placeholder.ID, cls.Prompt)
		return placeholder, nil
	}

	var sources []models.SearchResult
	if cls.Mode == intent.ModeSearch {
		resp, err := s.searcher.Search(ctx, cls.Prompt, external.SearchOptions{MaxResults: 5})
		if err != nil {
			s.logger.Error("web search failed", "query", cls.Prompt, "error", err)
			reason := fmt.Sprintf("web search failed: %v", err)
			if failErr := s.messages.Fail(ctx, placeholder.ID, models.MessageStatusError, reason, stream.FallbackErrorMessage); failErr != nil {
				s.logger.Error("failed to persist search failure", "message_id", placeholder.ID, "error", failErr)
			}
			placeholder.Status = models.MessageStatusError
			placeholder.Content = stream.FallbackErrorMessage
			return placeholder, nil
		}
		sources = convertSources(resp.Results)
	}

	if err := s.startStream(ctx, userID, session, placeholder, cls, modelOverride, sources); err != nil {
		return nil, err
	}

	return placeholder, nil
}

// startStream builds the provider request for the mode and hands it to a
// registered executor.
func (s *Service) startStream(ctx context.Context, userID string, session *models.Session, placeholder *models.Message, cls intent.Classification, modelOverride string, sources []models.SearchResult) error {
	model, err := s.resolveModel(ctx, userID, modelOverride)
	if err != nil {
		return err
	}

	provider, modelName, err := s.providers.ForModel(model)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	history, err := s.buildHistory(ctx, session.ID, placeholder.ID)
	if err != nil {
		return err
	}
	history = append(history, llm.ChatMessage{Role: "user", Content: cls.Prompt})

	system, err := s.buildSystemPrompt(ctx, userID, session, cls.Mode, sources)
	if err != nil {
		return err
	}

	request := &llm.Request{
		Model:    modelName,
		System:   system,
		Messages: history,
	}

	executor := stream.NewExecutor(
		context.Background(),
		placeholder.ID,
		cls.Mode,
		provider,
		request,
		s.messages,
		s.finalizer(userID, session.ID, placeholder.ID, cls, sources),
		s.logger,
	)

	if !s.executors.Register(placeholder.ID, executor) {
		return fmt.Errorf("stream already active for message %s: %w", placeholder.ID, domain.ErrConflict)
	}

	executor.Start()
	return nil
}

// finalizer persists the finished assistant message with the mode-specific
// fields and returns the message_done payload.
func (s *Service) finalizer(userID, sessionID, messageID string, cls intent.Classification, sources []models.SearchResult) stream.Finalizer {
	return func(ctx context.Context, content string, meta *llm.StreamMetadata) (models.MessageDoneEvent, error) {
		msg := &models.Message{
			ID:      messageID,
			Type:    models.MessageTypeText,
			Content: content,
			Status:  models.MessageStatusComplete,
		}
		if meta.Model != "" {
			model := meta.Model
			msg.Model = &model
		}

		done := models.MessageDoneEvent{
			MessageID: messageID,
			Content:   content,
			Mode:      cls.Mode,
		}

		var canvasMode string
		switch cls.Mode {
		case intent.ModeCode:
			msg.Type = models.MessageTypeCode
			language := detectCodeLanguage(cls.Prompt)
			label := codeLabel(cls.Prompt)
			msg.CodeLanguage = &language
			msg.CodeLabel = &label
			done.Language = &language
			done.Label = &label
			canvasMode = "code"

		case intent.ModeCanvas, intent.ModeCanvasEdit:
			msg.Type = models.MessageTypeCanvas
			canvasMode = "writing"

		case intent.ModeSearch:
			msg.MemoryAction = map[string]interface{}{
				"tool":    "web_search",
				"sources": sources,
			}
			done.WebSources = sources
			done.MemoryAction = msg.MemoryAction
		}

		if err := s.messages.Complete(ctx, msg); err != nil {
			return models.MessageDoneEvent{}, err
		}

		if canvasMode != "" {
			if err := s.sessions.UpdateCanvas(ctx, sessionID, userID, &content, &canvasMode, msg.CodeLanguage); err != nil {
				s.logger.Error("failed to persist canvas snapshot", "session_id", sessionID, "error", err)
			} else {
				s.events.CanvasUpdated.Publish(bus.CanvasUpdated{
					SessionID: sessionID,
					UserID:    userID,
					Mode:      canvasMode,
				})
			}
		}

		s.events.MessageFinalized.Publish(bus.MessageFinalized{
			SessionID: sessionID,
			MessageID: messageID,
			UserID:    userID,
			Mode:      cls.Mode,
		})
		s.executors.MarkCompleted(messageID)

		return done, nil
	}
}

// buildHistory converts the session's recent completed messages to
// provider chat messages, excluding the placeholder being generated.
func (s *Service) buildHistory(ctx context.Context, sessionID, excludeID string) ([]llm.ChatMessage, error) {
	msgs, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var history []llm.ChatMessage
	for _, msg := range msgs {
		if msg.ID == excludeID || msg.Status != models.MessageStatusComplete || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "user", "assistant":
			history = append(history, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
		}
	}

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	return history, nil
}

// resolveModel picks the model: explicit request, then the user's saved
// preference, then the configured default.
func (s *Service) resolveModel(ctx context.Context, userID, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if uid, err := uuid.Parse(userID); err == nil {
		prefs, err := s.prefs.GetByUserID(ctx, uid)
		if err != nil {
			return "", err
		}
		if prefs != nil {
			modelPrefs, err := prefs.GetModels()
			if err == nil && modelPrefs.DefaultChatModel != nil && *modelPrefs.DefaultChatModel != "" {
				return *modelPrefs.DefaultChatModel, nil
			}
		}
	}

	return s.defaultModel, nil
}

// EditMessageRequest is the PATCH body for a user message.
type EditMessageRequest struct {
	Content    string `json:"content"`
	Resend     bool   `json:"resend,omitempty"`
	Model      string `json:"model,omitempty"`
	CanvasOpen bool   `json:"canvas_open,omitempty"`
	CanvasMode string `json:"canvas_mode,omitempty"`
}

// Validate implements request validation.
func (r EditMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 20000)),
	)
}

// EditMessage rewrites a user message, discards everything after it, and
// optionally resends it through the pipeline. Returns the new placeholder
// when resending, nil otherwise.
func (s *Service) EditMessage(ctx context.Context, userID, messageID string, req EditMessageRequest) (*SendMessageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Role != "user" {
		return nil, fmt.Errorf("only user messages can be edited: %w", domain.ErrValidation)
	}

	session, err := s.sessions.GetByID(ctx, msg.SessionID, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.messages.UpdateContent(txCtx, messageID, req.Content); err != nil {
			return err
		}
		return s.messages.DeleteAfter(txCtx, session.ID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	msg.Content = req.Content

	if !req.Resend {
		return &SendMessageResult{UserMessage: msg}, nil
	}

	cls := s.classify(SendMessageRequest{
		Content:    req.Content,
		CanvasOpen: req.CanvasOpen,
		CanvasMode: req.CanvasMode,
	})

	placeholder, err := s.launchResponse(ctx, userID, session, cls, req.Model)
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{
		UserMessage:      msg,
		AssistantMessage: placeholder,
		Mode:             cls.Mode,
	}, nil
}

// CancelMessage interrupts the executor streaming this message. Other
// in-flight streams are unaffected.
func (s *Service) CancelMessage(ctx context.Context, userID, messageID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if _, err := s.sessions.GetByID(ctx, msg.SessionID, userID); err != nil {
		return err
	}

	executor := s.executors.Get(messageID)
	if executor == nil {
		return fmt.Errorf("no active stream for message %s: %w", messageID, domain.ErrNotFound)
	}

	executor.Interrupt()
	return nil
}

// Message page bounds for listing.
const (
	defaultMessagePageLimit = 50
	maxMessagePageLimit     = 200
)

// ListMessagesOptions pages a session's messages: up to Limit messages
// created strictly before the Before cursor. A zero cursor means the newest
// page.
type ListMessagesOptions struct {
	Limit  int
	Before time.Time
}

// ListMessages returns one page of a session's messages in creation order.
func (s *Service) ListMessages(ctx context.Context, userID, sessionID string, opts ListMessagesOptions) ([]models.Message, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultMessagePageLimit
	} else if limit > maxMessagePageLimit {
		limit = maxMessagePageLimit
	}

	return s.messages.ListBySessionPage(ctx, sessionID, limit, opts.Before)
}

// ClearMessages removes every message in a session, keeping the session
// itself and its canvas snapshot.
func (s *Service) ClearMessages(ctx context.Context, userID, sessionID string) error {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return err
	}

	if err := s.messages.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}

	return s.sessions.Touch(ctx, sessionID, userID)
}

// GetMessage returns one message after checking session ownership.
func (s *Service) GetMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.GetByID(ctx, msg.SessionID, userID); err != nil {
		return nil, err
	}

	return msg, nil
}

// Executor returns the live executor for a message, nil when none is
// registered (finished and collected, or never streamed).
func (s *Service) Executor(messageID string) *stream.Executor {
	return s.executors.Get(messageID)
}

func convertSources(results []external.SearchResult) []models.SearchResult {
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
