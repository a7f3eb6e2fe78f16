package gateway

import "sync"

// PresenceRegistry is the single source of truth for "is user X reachable
// right now". It maps user identity to the active connection handle. All
// operations are O(1) short critical sections; the lock is never held across
// network or store calls.
type PresenceRegistry struct {
	mu    sync.RWMutex
	conns map[string]ConnectionHandle
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		conns: make(map[string]ConnectionHandle),
	}
}

// Register stores the handle for a user, replacing any prior one. The newest
// connection wins; a superseded connection is not closed here, its eventual
// Unregister is a guarded no-op.
func (r *PresenceRegistry) Register(userID string, handle ConnectionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = handle
}

// Unregister removes the mapping only if the stored handle is the one
// disconnecting. A stale disconnect from a superseded connection must not
// remove a newer registration. Reports whether the entry was removed.
func (r *PresenceRegistry) Unregister(userID string, handle ConnectionHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current == handle {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the live handle for a user, if any.
func (r *PresenceRegistry) Lookup(userID string) (ConnectionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.conns[userID]
	return handle, ok
}

// Online returns the number of users with a live connection.
func (r *PresenceRegistry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
