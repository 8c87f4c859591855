package hub

import (
	"sync"
	"time"
)

type entry struct {
	client   *Client
	lastSeen time.Time
}

// Registry is the in-memory mapping of identity to live connection. It is
// mutated only from the hub's event loop; the internal lock exists so the
// health endpoint and tests can take consistent read snapshots from other
// goroutines.
//
// The core invariant is one registered connection per identity: Admit
// replaces unconditionally, while Touch and Evict are guarded and no-op
// unless the caller still holds the currently registered connection. The
// guard is what makes late disconnect events, stale heartbeats and the
// liveness sweep safe against reconnect races.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Admit stores the connection for an identity with liveness set to now. If
// another connection was registered for the identity it is returned so the
// caller can close its transport; Admit itself never fails.
func (r *Registry) Admit(identity string, c *Client, now time.Time) (superseded *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[identity]; ok {
		superseded = prev.client
	}
	r.entries[identity] = &entry{client: c, lastSeen: now}
	return superseded
}

// Touch refreshes the liveness timestamp, but only while c is still the
// registered connection for the identity. Returns whether it applied.
func (r *Registry) Touch(identity string, c *Client, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identity]
	if !ok || e.client != c {
		return false
	}
	e.lastSeen = now
	return true
}

// Evict removes the entry for an identity, but only while c is still the
// registered connection. Returns whether an entry was removed.
func (r *Registry) Evict(identity string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identity]
	if !ok || e.client != c {
		return false
	}
	delete(r.entries, identity)
	return true
}

// Lookup returns the registered connection for an identity, if any.
func (r *Registry) Lookup(identity string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identity]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// Identities returns a snapshot of the registered identities. Order is not
// significant.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stale returns the connections whose liveness timestamp is older than the
// cutoff. The caller evicts them through Evict so the guard still applies.
func (r *Registry) Stale(cutoff time.Time) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stale []*Client
	for _, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.client)
		}
	}
	return stale
}
