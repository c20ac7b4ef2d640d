package stream

import (
	"context"
	"sync"
	"time"
)

// Registry manages all active Executor instances.
//
// Design:
//   - One executor per assistant message (keyed by message ID)
//   - Thread-safe access via RWMutex
//   - Background cleanup removes finished executors after a retention period
//
// Lifecycle:
//  1. ChatService creates an executor and registers it
//  2. SSE clients connect and look the executor up here
//  3. The executor reaches a terminal state
//  4. The cleanup goroutine drops it after the retention period
type Registry struct {
	executors map[string]*Executor // messageID -> executor
	mu        sync.RWMutex

	cleanupInterval time.Duration
	retentionPeriod time.Duration

	completionTimes map[string]time.Time // messageID -> completion time
	timesMu         sync.RWMutex
}

// NewRegistry creates a Registry. Call StartCleanup to begin background
// collection of finished executors.
func NewRegistry(cleanupInterval, retentionPeriod time.Duration) *Registry {
	return &Registry{
		executors:       make(map[string]*Executor),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		completionTimes: make(map[string]time.Time),
	}
}

// Register registers an executor for a message.
// Returns false if one already exists for this message.
func (r *Registry) Register(messageID string, executor *Executor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[messageID]; exists {
		return false
	}

	r.executors[messageID] = executor
	return true
}

// Get retrieves the executor for a message, nil if none exists.
func (r *Registry) Get(messageID string) *Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.executors[messageID]
}

// Remove removes an executor. Safe to call when none exists.
func (r *Registry) Remove(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.executors, messageID)

	r.timesMu.Lock()
	delete(r.completionTimes, messageID)
	r.timesMu.Unlock()
}

// MarkCompleted records the completion time for cleanup tracking.
func (r *Registry) MarkCompleted(messageID string) {
	r.timesMu.Lock()
	defer r.timesMu.Unlock()

	r.completionTimes[messageID] = time.Now()
}

// StartCleanup runs the background cleanup loop until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup removes executors that finished longer than retentionPeriod ago.
func (r *Registry) cleanup() {
	now := time.Now()

	var toRemove []string

	r.mu.RLock()
	for messageID, executor := range r.executors {
		status := executor.Status()

		if status == StatusComplete || status == StatusError || status == StatusCancelled {
			r.timesMu.RLock()
			completionTime, exists := r.completionTimes[messageID]
			r.timesMu.RUnlock()

			if exists && now.Sub(completionTime) > r.retentionPeriod {
				toRemove = append(toRemove, messageID)
			} else if !exists {
				r.MarkCompleted(messageID)
			}
		}
	}
	r.mu.RUnlock()

	if len(toRemove) > 0 {
		r.mu.Lock()
		for _, messageID := range toRemove {
			delete(r.executors, messageID)
		}
		r.mu.Unlock()

		r.timesMu.Lock()
		for _, messageID := range toRemove {
			delete(r.completionTimes, messageID)
		}
		r.timesMu.Unlock()
	}
}

// Count returns the number of registered executors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.executors)
}
