package daemon

import (
	"sort"
	"sync"
	"time"
)

// SenderRegistry tracks which senders the daemon currently reports as
// connected. It is mutated only by the Link in response to presence
// notifications; all other components read it.
type SenderRegistry struct {
	mu      sync.RWMutex
	senders map[string]time.Time
}

// NewSenderRegistry returns an empty registry.
func NewSenderRegistry() *SenderRegistry {
	return &SenderRegistry{senders: make(map[string]time.Time)}
}

// Add records a sender token. The connection time is kept for inspection
// only; entries never expire on their own.
func (r *SenderRegistry) Add(token string, at time.Time) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[token] = at
}

// Remove drops a sender token. Removing an unknown token is a no-op.
func (r *SenderRegistry) Remove(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, token)
}

// Has reports whether the sender token is currently registered.
func (r *SenderRegistry) Has(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.senders[token]
	return ok
}

// Count returns the number of connected senders.
func (r *SenderRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.senders)
}

// Snapshot is an immutable view of the registry handed to presence event
// handlers.
type Snapshot struct {
	Count   int
	Senders []string
}

// Snapshot returns the current sender set with tokens in sorted order.
func (r *SenderRegistry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.senders))
	for token := range r.senders {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	return Snapshot{Count: len(tokens), Senders: tokens}
}
