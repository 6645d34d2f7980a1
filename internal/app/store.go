package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/domain"
)

const DefaultHistoryLimit = 200

// MemberInfo is a read-only presence view for APIs (no transport fields).
type MemberInfo struct {
	ID   domain.ConnID `json:"id"`
	Name string        `json:"name"`
}

// RoomInfo is the lobby view of a room.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	Label       string        `json:"label"`
	MemberCount int           `json:"member_count"`
}

// roomState is threadsafe in-memory state for one room. It never
// touches adapter-owned resources.
type roomState struct {
	room domain.Room

	mu      sync.RWMutex
	members map[domain.ConnID]string
	history []domain.Message
}

// RoomStore owns membership and bounded message history for the static
// room set. The room map itself is immutable after construction, so
// locking is per room and never crosses rooms. Every operation against
// an unknown room id is a silent no-op or empty result; surfacing that
// to a user is the router's job.
type RoomStore struct {
	rooms map[domain.RoomID]*roomState
	limit int
}

func NewRoomStore(rooms []domain.Room, historyLimit int) *RoomStore {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	s := &RoomStore{rooms: make(map[domain.RoomID]*roomState, len(rooms)), limit: historyLimit}
	for _, r := range rooms {
		s.rooms[r.ID] = &roomState{room: r, members: make(map[domain.ConnID]string)}
	}
	return s
}

func (s *RoomStore) RoomExists(id domain.RoomID) bool {
	_, ok := s.rooms[id]
	return ok
}

func (s *RoomStore) Rooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, rs := range s.rooms {
		rs.mu.RLock()
		out = append(out, RoomInfo{ID: rs.room.ID, Label: rs.room.Label, MemberCount: len(rs.members)})
		rs.mu.RUnlock()
	}
	return out
}

// AddMember inserts or overwrites the membership entry for conn.
func (s *RoomStore) AddMember(room domain.RoomID, conn domain.ConnID, name string) bool {
	rs, ok := s.rooms[room]
	if !ok {
		return false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.members[conn] = name
	log.Info().Str("module", "app.store").Str("room", string(room)).Str("conn", string(conn)).Msg("member added")
	return true
}

func (s *RoomStore) RemoveMember(room domain.RoomID, conn domain.ConnID) {
	rs, ok := s.rooms[room]
	if !ok {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, present := rs.members[conn]; !present {
		return
	}
	delete(rs.members, conn)
	log.Info().Str("module", "app.store").Str("room", string(room)).Str("conn", string(conn)).Msg("member removed")
}

func (s *RoomStore) ListMembers(room domain.RoomID) []MemberInfo {
	rs, ok := s.rooms[room]
	if !ok {
		return nil
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]MemberInfo, 0, len(rs.members))
	for id, name := range rs.members {
		out = append(out, MemberInfo{ID: id, Name: name})
	}
	return out
}

// AppendMessage inserts at the history tail, evicting from the head
// once the retention bound is exceeded.
func (s *RoomStore) AppendMessage(room domain.RoomID, msg domain.Message) bool {
	rs, ok := s.rooms[room]
	if !ok {
		return false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.history = append(rs.history, msg)
	if len(rs.history) > s.limit {
		overflow := len(rs.history) - s.limit
		rs.history = append(rs.history[:0:0], rs.history[overflow:]...)
	}
	return true
}

// RecentHistory returns up to limit most recent messages, oldest first.
// limit <= 0 means everything retained. The returned slice is a copy and
// never nil, so an empty history marshals as [] on the wire.
func (s *RoomStore) RecentHistory(room domain.RoomID, limit int) []domain.Message {
	rs, ok := s.rooms[room]
	if !ok {
		return []domain.Message{}
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	h := rs.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append(make([]domain.Message, 0, len(h)), h...)
}
