package chat

import (
	"context"
	"sync"
)

// Registry maps in-flight message ids to their cancellation handles. A
// handle exists only while a generation is in flight: it is stored at
// dispatch and removed on success, error, explicit cancel, or timeout.
//
// The registry is created at application start and injected into the
// service; it is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	handles map[int64]context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[int64]context.CancelFunc),
	}
}

// Store registers the cancellation handle of an in-flight message.
func (r *Registry) Store(messageID int64, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[messageID] = cancel
}

// Cancel signals the handle of a message and removes it. Cancelling a
// message with no in-flight handle is a no-op; the return value reports
// whether a handle was found.
func (r *Registry) Cancel(messageID int64) bool {
	r.mu.Lock()
	cancel, ok := r.handles[messageID]
	if ok {
		delete(r.handles, messageID)
	}
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Remove drops the handle of a message without signalling it.
func (r *Registry) Remove(messageID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, messageID)
}

// Len returns the number of in-flight handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
