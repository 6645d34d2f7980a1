package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/domain"
)

type binding struct {
	Room domain.RoomID
	Name string
}

// Registry is the single source of truth for which connection sits in
// which room and under what display name. A connection belongs to at
// most one room; Register enforces that by reporting the prior room so
// the caller can evict the stale membership.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]binding)}
}

// Register binds conn to room under name. When the connection was
// already bound, the previous room is returned with hadPrev=true;
// re-registering into the same room is a rename-in-place, not a join.
func (r *Registry) Register(conn domain.ConnID, room domain.RoomID, name string) (prev domain.RoomID, hadPrev bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.conns[conn]
	r.conns[conn] = binding{Room: room, Name: name}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(room)).Str("name", name).Msg("registered")
	if !ok {
		return "", false
	}
	return old.Room, true
}

func (r *Registry) Lookup(conn domain.ConnID) (room domain.RoomID, name string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[conn]
	return b.Room, b.Name, ok
}

// Unregister removes and returns the prior binding. A second call for
// the same connection observes ok=false and must be treated as a no-op
// by the caller, which is what keeps leave/disconnect races single-shot.
func (r *Registry) Unregister(conn domain.ConnID) (room domain.RoomID, name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[conn]
	if !ok {
		return "", "", false
	}
	delete(r.conns, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(b.Room)).Msg("unregistered")
	return b.Room, b.Name, true
}
