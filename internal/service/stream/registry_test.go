package stream

import (
	"context"
	"testing"
	"time"
)

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(time.Minute, 10*time.Minute)

	provider := &scriptedProvider{deltas: []string{"x"}}
	e := newTestExecutor(t, provider, &recordingMessageRepo{}, nil)

	if ok := r.Register("msg-1", e); !ok {
		t.Fatal("first Register returned false")
	}
	if ok := r.Register("msg-1", e); ok {
		t.Fatal("duplicate Register returned true")
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestRegistryGetAndRemove(t *testing.T) {
	r := NewRegistry(time.Minute, 10*time.Minute)

	provider := &scriptedProvider{deltas: []string{"x"}}
	e := newTestExecutor(t, provider, &recordingMessageRepo{}, nil)

	r.Register("msg-1", e)
	if got := r.Get("msg-1"); got != e {
		t.Error("Get returned wrong executor")
	}
	if got := r.Get("msg-2"); got != nil {
		t.Error("Get for unknown message should return nil")
	}

	r.Remove("msg-1")
	if got := r.Get("msg-1"); got != nil {
		t.Error("Get after Remove should return nil")
	}
}

func TestRegistryCleanupRemovesFinishedExecutors(t *testing.T) {
	r := NewRegistry(time.Millisecond, time.Millisecond)

	provider := &scriptedProvider{deltas: []string{"x"}}
	e := newTestExecutor(t, provider, &recordingMessageRepo{}, nil)

	e.Start()
	waitForStatus(t, e, StatusComplete)

	r.Register("msg-1", e)
	r.MarkCompleted("msg-1")

	time.Sleep(5 * time.Millisecond)
	r.cleanup()

	if got := r.Count(); got != 0 {
		t.Errorf("Count() after cleanup = %d, want 0", got)
	}
}

// StartCleanup is a blocking loop; main must run it on its own goroutine.
// Verify it collects finished executors in the background and returns once
// its context is cancelled.
func TestRegistryStartCleanupCollectsInBackground(t *testing.T) {
	r := NewRegistry(time.Millisecond, time.Millisecond)

	provider := &scriptedProvider{deltas: []string{"x"}}
	e := newTestExecutor(t, provider, &recordingMessageRepo{}, nil)

	e.Start()
	waitForStatus(t, e, StatusComplete)

	r.Register("msg-1", e)
	r.MarkCompleted("msg-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.StartCleanup(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && r.Count() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0 after background cleanup", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StartCleanup did not return after context cancellation")
	}
}

func TestRegistryCleanupKeepsStreamingExecutors(t *testing.T) {
	r := NewRegistry(time.Millisecond, time.Millisecond)

	provider := &scriptedProvider{
		deltas: []string{"x"},
		block:  make(chan struct{}),
	}
	e := newTestExecutor(t, provider, &recordingMessageRepo{}, nil)
	e.Start()

	r.Register("msg-1", e)

	time.Sleep(5 * time.Millisecond)
	r.cleanup()

	if got := r.Count(); got != 1 {
		t.Errorf("Count() after cleanup = %d, want 1 (still streaming)", got)
	}

	close(provider.block)
}
