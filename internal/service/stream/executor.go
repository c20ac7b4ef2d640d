package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
	"arcai/internal/service/llm"
)

// Execution status values.
const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// FallbackErrorMessage replaces the assistant content when a response fails
// before producing anything useful.
const FallbackErrorMessage = "Sorry, I encountered an error while responding. Please try again."

// persistTimeout bounds terminal database writes, which run on a fresh
// context because the executor's own context may already be cancelled.
const persistTimeout = 10 * time.Second

// Finalizer persists the finished assistant message and returns the
// message_done payload to broadcast. It runs once, on successful completion.
type Finalizer func(ctx context.Context, content string, meta *llm.StreamMetadata) (models.MessageDoneEvent, error)

// Executor orchestrates streaming execution for a single assistant message.
//
// Responsibilities:
//   - Coordinate provider streaming
//   - Accumulate deltas for reconnection catchup
//   - Broadcast SSE events to all connected clients
//   - Handle context cancellation (user stop)
//   - Update message status and content in the database
//
// Thread-safety: methods are safe for concurrent use; multiple SSE clients
// can connect while a stream is in flight.
type Executor struct {
	messageID string
	mode      string
	model     string
	provider  llm.Provider
	request   *llm.Request
	finalize  Finalizer
	messages  repositories.MessageRepository
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc

	// SSE client management
	clients   map[string]chan string // clientID -> event channel
	clientsMu sync.RWMutex

	// Accumulated text, for catchup on reconnect
	content   strings.Builder
	contentMu sync.RWMutex

	status    string
	statusErr error
	statusMu  sync.RWMutex

	// Cached terminal SSE event, replayed to late clients
	terminalEvent string
}

// NewExecutor creates an Executor for one assistant message.
func NewExecutor(
	parentCtx context.Context,
	messageID string,
	mode string,
	provider llm.Provider,
	request *llm.Request,
	messages repositories.MessageRepository,
	finalize Finalizer,
	logger *slog.Logger,
) *Executor {
	ctx, cancel := context.WithCancel(parentCtx)

	return &Executor{
		messageID:  messageID,
		mode:       mode,
		model:      request.Model,
		provider:   provider,
		request:    request,
		finalize:   finalize,
		messages:   messages,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
		clients:    make(map[string]chan string),
		status:     StatusStreaming,
	}
}

// Start begins streaming execution (non-blocking).
func (e *Executor) Start() {
	go e.executeStreaming()
}

// MessageID returns the message this executor is producing.
func (e *Executor) MessageID() string {
	return e.messageID
}

// Mode returns the response mode being streamed.
func (e *Executor) Mode() string {
	return e.mode
}

// AddClient registers a new SSE client.
// Returns a channel that receives SSE-formatted event strings; the client
// reads until the channel closes.
func (e *Executor) AddClient(clientID string) <-chan string {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	// Buffered so a slow reader doesn't stall the stream
	eventChan := make(chan string, 20)
	e.clients[clientID] = eventChan

	return eventChan
}

// RemoveClient unregisters an SSE client.
func (e *Executor) RemoveClient(clientID string) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	if ch, exists := e.clients[clientID]; exists {
		close(ch)
		delete(e.clients, clientID)
	}
}

// GetClientChannel returns the bidirectional channel for a client, used to
// push catchup events during reconnection. Nil if the client is unknown.
func (e *Executor) GetClientChannel(clientID string) chan string {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	return e.clients[clientID]
}

// Interrupt cancels the stream. Safe to call multiple times; only the first
// call on a live stream flips the status.
func (e *Executor) Interrupt() {
	e.statusMu.Lock()
	if e.status == StatusStreaming {
		e.status = StatusCancelled
	}
	e.statusMu.Unlock()

	e.cancelFunc()
}

// Status returns the current execution status.
func (e *Executor) Status() string {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Err returns the error when Status is "error", nil otherwise.
func (e *Executor) Err() error {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.statusErr
}

// Snapshot returns the text accumulated so far.
func (e *Executor) Snapshot() string {
	e.contentMu.RLock()
	defer e.contentMu.RUnlock()
	return e.content.String()
}

// HandleReconnection pushes catchup state to a newly connected client:
// everything accumulated so far, followed by the terminal event (and a
// channel close) when the stream has already finished.
func (e *Executor) HandleReconnection(ctx context.Context, clientChan chan<- string) error {
	catchup, err := models.NewCatchupEvent(e.messageID, e.Snapshot(), e.mode)
	if err != nil {
		return fmt.Errorf("create catchup event: %w", err)
	}

	select {
	case clientChan <- catchup:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.statusMu.RLock()
	status := e.status
	terminal := e.terminalEvent
	e.statusMu.RUnlock()

	if status == StatusStreaming {
		return nil
	}

	if terminal != "" {
		select {
		case clientChan <- terminal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	close(clientChan)
	return nil
}

// executeStreaming is the main streaming loop (runs in a goroutine).
func (e *Executor) executeStreaming() {
	if err := e.messages.UpdateStatus(e.ctx, e.messageID, models.MessageStatusStreaming); err != nil {
		e.handleError(fmt.Errorf("update message status: %w", err))
		return
	}

	startEvent, _ := models.NewStreamStartEvent(e.messageID, e.mode, e.model)
	e.broadcast(startEvent)

	streamChan, err := e.provider.Stream(e.ctx, e.request)
	if err != nil {
		e.handleError(fmt.Errorf("start provider stream: %w", err))
		return
	}

	for streamEvent := range streamChan {
		if streamEvent.Error != nil {
			e.handleError(streamEvent.Error)
			return
		}

		if streamEvent.Delta != nil {
			e.appendDelta(*streamEvent.Delta)

			deltaEvent, _ := models.NewMessageDeltaEvent(e.messageID, *streamEvent.Delta)
			e.broadcast(deltaEvent)
		}

		if streamEvent.Metadata != nil {
			e.handleCompletion(streamEvent.Metadata)
			return
		}
	}

	e.handleError(fmt.Errorf("stream closed without metadata"))
}

func (e *Executor) appendDelta(text string) {
	e.contentMu.Lock()
	e.content.WriteString(text)
	e.contentMu.Unlock()
}

// handleCompletion finalizes a successful stream.
func (e *Executor) handleCompletion(meta *llm.StreamMetadata) {
	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	done, err := e.finalize(persistCtx, e.Snapshot(), meta)
	if err != nil {
		e.handleError(fmt.Errorf("finalize message: %w", err))
		return
	}

	doneEvent, err := models.NewMessageDoneEvent(done)
	if err != nil {
		e.handleError(fmt.Errorf("create done event: %w", err))
		return
	}

	e.statusMu.Lock()
	e.status = StatusComplete
	e.terminalEvent = doneEvent
	e.statusMu.Unlock()

	e.broadcast(doneEvent)
	e.closeClients()
}

// handleError handles stream failure and user cancellation. Cancellation
// keeps the partial text; failure replaces empty output with the fallback
// message so the placeholder never renders blank.
func (e *Executor) handleError(err error) {
	cancelled := errors.Is(err, context.Canceled) || e.ctx.Err() != nil

	content := e.Snapshot()
	status := models.MessageStatusError
	reason := err.Error()

	if cancelled {
		status = models.MessageStatusCancelled
		reason = "response cancelled"
	} else if content == "" {
		content = FallbackErrorMessage
	}

	e.statusMu.Lock()
	if cancelled {
		e.status = StatusCancelled
	} else {
		e.status = StatusError
		e.statusErr = err
	}
	e.statusMu.Unlock()

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if persistErr := e.messages.Fail(persistCtx, e.messageID, status, reason, content); persistErr != nil {
		e.logger.Error("failed to persist message failure",
			"message_id", e.messageID,
			"error", persistErr,
		)
	}

	if !cancelled {
		e.logger.Error("stream failed",
			"message_id", e.messageID,
			"mode", e.mode,
			"error", err,
		)
	}

	errorEvent, _ := models.NewStreamErrorEvent(e.messageID, reason, cancelled)

	e.statusMu.Lock()
	e.terminalEvent = errorEvent
	e.statusMu.Unlock()

	e.broadcast(errorEvent)
	e.closeClients()
}

// broadcast sends an SSE event to all connected clients. A client whose
// buffer is full misses the event and recovers via catchup on reconnect.
func (e *Executor) broadcast(event string) {
	if event == "" {
		return
	}

	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	for clientID, ch := range e.clients {
		select {
		case ch <- event:
		default:
			e.logger.Debug("client buffer full, dropping event", "client_id", clientID)
		}
	}
}

func (e *Executor) closeClients() {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	for clientID, ch := range e.clients {
		close(ch)
		delete(e.clients, clientID)
	}
}
