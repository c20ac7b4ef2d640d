package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"arcai/internal/domain/models"
	"arcai/internal/service/llm"
)

// scriptedProvider emits a fixed sequence of deltas. When block is set, it
// waits after the deltas until the channel is closed or the context ends,
// which lets tests cancel mid-stream deterministically.
type scriptedProvider struct {
	deltas []string
	err    error
	block  chan struct{}
}

func (p *scriptedProvider) Name() string                  { return "scripted" }
func (p *scriptedProvider) SupportsModel(model string) bool { return true }

func (p *scriptedProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return nil, fmt.Errorf("not implemented")
}

func (p *scriptedProvider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamEvent, error) {
	ch := make(chan llm.StreamEvent, len(p.deltas)+2)

	go func() {
		defer close(ch)

		for i := range p.deltas {
			text := p.deltas[i]
			ch <- llm.StreamEvent{Delta: &text}
		}

		if p.block != nil {
			select {
			case <-ctx.Done():
				ch <- llm.StreamEvent{Error: ctx.Err()}
				return
			case <-p.block:
			}
		}

		if p.err != nil {
			ch <- llm.StreamEvent{Error: p.err}
			return
		}

		ch <- llm.StreamEvent{
			Metadata: &llm.StreamMetadata{
				Model:      req.Model,
				StopReason: "end_turn",
			},
		}
	}()

	return ch, nil
}

// recordingMessageRepo records status transitions and terminal writes.
type recordingMessageRepo struct {
	mu            sync.Mutex
	statusUpdates []string
	failStatus    string
	failReason    string
	failContent   string
	failCalls     int
}

func (r *recordingMessageRepo) Create(ctx context.Context, msg *models.Message) error { return nil }
func (r *recordingMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) ListBySessionPage(ctx context.Context, sessionID string, limit int, before time.Time) ([]models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	return nil
}
func (r *recordingMessageRepo) Complete(ctx context.Context, msg *models.Message) error { return nil }
func (r *recordingMessageRepo) DeleteAfter(ctx context.Context, sessionID string, after time.Time) error {
	return nil
}
func (r *recordingMessageRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	return nil
}

func (r *recordingMessageRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *recordingMessageRepo) Fail(ctx context.Context, id, status, reason, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failStatus = status
	r.failReason = reason
	r.failContent = content
	r.failCalls++
	return nil
}

func (r *recordingMessageRepo) failState() (string, string, string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failStatus, r.failReason, r.failContent, r.failCalls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitForStatus(t *testing.T, e *Executor, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("executor status = %q, want %q", e.Status(), want)
}

func drainClient(ch <-chan string) []string {
	var events []string
	for event := range ch {
		events = append(events, event)
	}
	return events
}

func newTestExecutor(t *testing.T, provider llm.Provider, repo *recordingMessageRepo, finalize Finalizer) *Executor {
	t.Helper()
	if finalize == nil {
		finalize = func(ctx context.Context, content string, meta *llm.StreamMetadata) (models.MessageDoneEvent, error) {
			return models.MessageDoneEvent{MessageID: "msg-1", Content: content, Mode: "text"}, nil
		}
	}
	return NewExecutor(
		context.Background(),
		"msg-1",
		"text",
		provider,
		&llm.Request{Model: "lorem-fast"},
		repo,
		finalize,
		testLogger(),
	)
}

func TestExecutorAccumulatesDeltas(t *testing.T) {
	provider := &scriptedProvider{deltas: []string{"Hel", "lo wor", "ld"}}
	repo := &recordingMessageRepo{}

	var finalContent string
	finalize := func(ctx context.Context, content string, meta *llm.StreamMetadata) (models.MessageDoneEvent, error) {
		finalContent = content
		return models.MessageDoneEvent{MessageID: "msg-1", Content: content, Mode: "text"}, nil
	}

	e := newTestExecutor(t, provider, repo, finalize)
	clientChan := e.AddClient("client-1")

	e.Start()
	events := drainClient(clientChan)

	waitForStatus(t, e, StatusComplete)

	if finalContent != "Hello world" {
		t.Errorf("finalized content = %q, want %q", finalContent, "Hello world")
	}

	if got := e.Snapshot(); got != "Hello world" {
		t.Errorf("Snapshot() = %q, want %q", got, "Hello world")
	}

	var deltaCount int
	for _, event := range events {
		if strings.Contains(event, "event: message_delta") {
			deltaCount++
		}
	}
	if deltaCount != 3 {
		t.Errorf("received %d delta events, want 3", deltaCount)
	}

	if !strings.Contains(events[0], "event: stream_start") {
		t.Errorf("first event = %q, want stream_start", events[0])
	}
	last := events[len(events)-1]
	if !strings.Contains(last, "event: message_done") {
		t.Errorf("last event = %q, want message_done", last)
	}
}

func TestExecutorCancelMidStream(t *testing.T) {
	provider := &scriptedProvider{
		deltas: []string{"partial "},
		block:  make(chan struct{}),
	}
	repo := &recordingMessageRepo{}

	e := newTestExecutor(t, provider, repo, nil)
	clientChan := e.AddClient("client-1")

	e.Start()

	// Wait for the delta to arrive before cancelling
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && e.Snapshot() == "" {
		time.Sleep(5 * time.Millisecond)
	}
	if e.Snapshot() == "" {
		t.Fatal("no content accumulated before cancel")
	}

	e.Interrupt()
	events := drainClient(clientChan)
	waitForStatus(t, e, StatusCancelled)

	status, _, content, calls := repo.failState()
	if status != models.MessageStatusCancelled {
		t.Errorf("persisted status = %q, want %q", status, models.MessageStatusCancelled)
	}
	if content != "partial " {
		t.Errorf("persisted content = %q, want partial text", content)
	}
	if calls != 1 {
		t.Errorf("Fail called %d times, want 1", calls)
	}

	last := events[len(events)-1]
	if !strings.Contains(last, "event: stream_error") || !strings.Contains(last, `"cancelled":true`) {
		t.Errorf("last event = %q, want cancelled stream_error", last)
	}
}

func TestExecutorErrorFallback(t *testing.T) {
	provider := &scriptedProvider{err: fmt.Errorf("upstream exploded")}
	repo := &recordingMessageRepo{}

	e := newTestExecutor(t, provider, repo, nil)
	clientChan := e.AddClient("client-1")

	e.Start()
	events := drainClient(clientChan)
	waitForStatus(t, e, StatusError)

	status, reason, content, _ := repo.failState()
	if status != models.MessageStatusError {
		t.Errorf("persisted status = %q, want %q", status, models.MessageStatusError)
	}
	if !strings.Contains(reason, "upstream exploded") {
		t.Errorf("persisted reason = %q, want upstream error", reason)
	}
	if content != FallbackErrorMessage {
		t.Errorf("persisted content = %q, want fallback message", content)
	}

	last := events[len(events)-1]
	if !strings.Contains(last, "event: stream_error") {
		t.Errorf("last event = %q, want stream_error", last)
	}
	if strings.Contains(last, `"cancelled":true`) {
		t.Errorf("error event marked cancelled: %q", last)
	}
}

func TestHandleReconnectionAfterComplete(t *testing.T) {
	provider := &scriptedProvider{deltas: []string{"done already"}}
	repo := &recordingMessageRepo{}

	e := newTestExecutor(t, provider, repo, nil)
	e.Start()
	waitForStatus(t, e, StatusComplete)

	clientChan := make(chan string, 20)
	if err := e.HandleReconnection(context.Background(), clientChan); err != nil {
		t.Fatalf("HandleReconnection: %v", err)
	}

	events := drainClient(clientChan)
	if len(events) != 2 {
		t.Fatalf("received %d events, want catchup + terminal", len(events))
	}
	if !strings.Contains(events[0], "event: catchup") || !strings.Contains(events[0], "done already") {
		t.Errorf("first event = %q, want catchup with content", events[0])
	}
	if !strings.Contains(events[1], "event: message_done") {
		t.Errorf("second event = %q, want message_done", events[1])
	}
}

func TestHandleReconnectionMidStream(t *testing.T) {
	provider := &scriptedProvider{
		deltas: []string{"in flight "},
		block:  make(chan struct{}),
	}
	repo := &recordingMessageRepo{}

	e := newTestExecutor(t, provider, repo, nil)
	e.Start()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && e.Snapshot() == "" {
		time.Sleep(5 * time.Millisecond)
	}

	clientChan := make(chan string, 20)
	if err := e.HandleReconnection(context.Background(), clientChan); err != nil {
		t.Fatalf("HandleReconnection: %v", err)
	}

	select {
	case event := <-clientChan:
		if !strings.Contains(event, "event: catchup") || !strings.Contains(event, "in flight") {
			t.Errorf("event = %q, want catchup with partial content", event)
		}
	default:
		t.Fatal("no catchup event delivered")
	}

	close(provider.block)
}
