package websocket

import (
	"sync"
	"time"
)

// LiveConnection is the registry's record of one reachable user. The direct
// connection IDs are captured once at admission so offline announcements can
// proceed even if the repository is unreachable during teardown.
type LiveConnection struct {
	UserID              string
	ConnectionID        string
	Username            string
	DirectConnectionIDs []string
	AdmittedAt          time.Time
}

// Registry is the authoritative map of which users currently hold a live
// connection. One entry per user: a reconnect (page refresh) supersedes the
// stale registration instead of producing duplicates.
type Registry struct {
	connections map[string]*LiveConnection
	mu          sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{connections: make(map[string]*LiveConnection)}
}

// Admit records the connection, overwriting any prior entry for the user.
func (r *Registry) Admit(userID, connectionID, username string, directConnectionIDs []string) *LiveConnection {
	conn := &LiveConnection{
		UserID:              userID,
		ConnectionID:        connectionID,
		Username:            username,
		DirectConnectionIDs: directConnectionIDs,
		AdmittedAt:          time.Now(),
	}

	r.mu.Lock()
	r.connections[userID] = conn
	r.mu.Unlock()

	return conn
}

// Evict removes the user's entry and returns it. Evicting an absent user is
// a no-op returning nil, never an error.
func (r *Registry) Evict(userID string) *LiveConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[userID]
	if !ok {
		return nil
	}
	delete(r.connections, userID)
	return conn
}

func (r *Registry) IsLive(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.connections[userID]
	return ok
}

// Lookup returns the live entry for the user, or nil.
func (r *Registry) Lookup(userID string) *LiveConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.connections[userID]
}

// LiveUserIDs returns every currently reachable user.
func (r *Registry) LiveUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	return ids
}
