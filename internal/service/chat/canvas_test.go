package chat

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"arcai/internal/bus"
)

// syncBuffer is a mutex-guarded log sink the worker goroutine can write to
// while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCanvasWorkerConsumesCanvasEvents(t *testing.T) {
	out := &syncBuffer{}
	events := bus.New()
	svc := NewService(Deps{
		Events: events,
		Logger: slog.New(slog.NewTextHandler(out, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.StartCanvasWorker(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && events.CanvasUpdated.SubscriberCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	if events.CanvasUpdated.SubscriberCount() != 1 {
		t.Fatal("worker never subscribed to canvas updates")
	}

	events.CanvasUpdated.Publish(bus.CanvasUpdated{
		SessionID: "session-1",
		UserID:    "user-1",
		Mode:      "code",
	})

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(out.String(), "canvas updated") {
		time.Sleep(time.Millisecond)
	}
	logged := out.String()
	if !strings.Contains(logged, "canvas updated") || !strings.Contains(logged, "session-1") {
		t.Errorf("worker log = %q, want canvas update for session-1", logged)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
