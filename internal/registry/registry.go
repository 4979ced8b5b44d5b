// Package registry holds the in-memory view of active calls.
package registry

import (
	"sync"

	"github.com/sweeney/callrouter/internal/call"
)

// Registry maps a call's unique id to its latest event. It is the sole
// owner of entries; Snapshot hands out copies. Snapshot order follows
// insertion order, which callers may rely on for display only.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]call.Event
	order []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{calls: make(map[string]call.Event)}
}

// Upsert inserts or replaces the entry keyed by the event's unique id.
// It reports whether the call was newly created; replaying a creation
// event overwrites harmlessly and reports false.
func (r *Registry) Upsert(ev call.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.calls[ev.UniqueID]
	if !exists {
		r.order = append(r.order, ev.UniqueID)
	}
	r.calls[ev.UniqueID] = ev
	return !exists
}

// UpdateState sets the call state for an existing entry. Unknown ids
// are a silent no-op: upstream event ordering is not reliable.
func (r *Registry) UpdateState(uniqueID string, state call.State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.calls[uniqueID]
	if !ok {
		return false
	}
	ev.CallState = state
	r.calls[uniqueID] = ev
	return true
}

// Remove deletes an entry. Unknown ids are a no-op.
func (r *Registry) Remove(uniqueID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[uniqueID]; !ok {
		return false
	}
	delete(r.calls, uniqueID)
	for i, id := range r.order {
		if id == uniqueID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the entry for the given id.
func (r *Registry) Get(uniqueID string) (call.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.calls[uniqueID]
	return ev, ok
}

// Snapshot returns copies of all current entries in insertion order.
func (r *Registry) Snapshot() []call.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]call.Event, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.calls[id])
	}
	return out
}

// Len returns the number of active calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}
