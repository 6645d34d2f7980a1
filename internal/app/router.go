package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/domain"
)

// Router is the per-connection state machine: Unjoined -> Joined(room)
// -> Unjoined. Each inbound event mutates registry/store state and
// returns the deliveries to fan out, so the machine is testable without
// a live transport.
type Router struct {
	registry *Registry
	store    *RoomStore

	now   func() time.Time
	newID func() string
}

func NewRouter(registry *Registry, store *RoomStore) *Router {
	return &Router{
		registry: registry,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Join validates the room, binds the connection and catches it up.
// A join notice goes out only when the connection's room actually
// changed; re-joining the same room under a new name is a rename and
// must not spam the room.
func (rt *Router) Join(conn domain.ConnID, room domain.RoomID, rawName string) []Outbound {
	if !rt.store.RoomExists(room) {
		log.Warn().Str("module", "app.router").Str("conn", string(conn)).Str("room", string(room)).Msg("join to unknown room")
		return []Outbound{rt.notice([]domain.ConnID{conn}, fmt.Sprintf("room %q does not exist", room), CodeUnknownRoom)}
	}

	name := domain.DisplayName(rawName)
	prev, hadPrev := rt.registry.Register(conn, room, name)
	newJoin := !hadPrev || prev != room

	var out []Outbound
	if hadPrev && prev != room {
		rt.store.RemoveMember(prev, conn)
		out = append(out, rt.presence(prev, rt.store.ListMembers(prev)))
	}

	rt.store.AddMember(room, conn, name)
	members := rt.store.ListMembers(room)

	out = append(out, Outbound{
		To:      []domain.ConnID{conn},
		Payload: HistoryPayload{Type: EventChatHistory, Room: room, Messages: rt.store.RecentHistory(room, 0)},
	})
	out = append(out, rt.presence(room, members))
	if newJoin {
		out = append(out, rt.notice(connIDs(members), fmt.Sprintf("%s joined the room", name), ""))
	}
	log.Info().Str("module", "app.router").Str("conn", string(conn)).Str("room", string(room)).Bool("new_join", newJoin).Msg("join")
	return out
}

// Message requires the connection to be joined to exactly the addressed
// room. Anything else is dropped without a notice: message events race
// with leaves the client has not observed yet, and that is normal.
func (rt *Router) Message(conn domain.ConnID, room domain.RoomID, rawText string) []Outbound {
	curRoom, name, ok := rt.registry.Lookup(conn)
	if !ok || curRoom != room {
		log.Debug().Str("module", "app.router").Str("conn", string(conn)).Str("room", string(room)).Msg("message from unjoined or mismatched connection")
		return nil
	}
	body, ok := domain.MessageBody(rawText)
	if !ok {
		return nil
	}

	msg := domain.Message{
		ID:     rt.newID(),
		Author: name,
		Body:   body,
		SentAt: rt.now().UTC(),
	}
	if !rt.store.AppendMessage(room, msg) {
		return nil
	}
	return []Outbound{{
		To:      connIDs(rt.store.ListMembers(room)),
		Payload: MessagePayload{Type: EventChatMessage, Room: room, Message: msg},
	}}
}

// Leave handles an explicit leave_room request.
func (rt *Router) Leave(conn domain.ConnID) []Outbound {
	return rt.depart(conn, "%s left the room")
}

// Disconnect is the transport-close twin of Leave; only the notice
// wording differs.
func (rt *Router) Disconnect(conn domain.ConnID) []Outbound {
	return rt.depart(conn, "%s lost connection")
}

func (rt *Router) depart(conn domain.ConnID, format string) []Outbound {
	room, name, ok := rt.registry.Unregister(conn)
	if !ok {
		// Already unjoined: a leave racing a disconnect lands here.
		return nil
	}
	rt.store.RemoveMember(room, conn)
	stayers := rt.store.ListMembers(room)
	log.Info().Str("module", "app.router").Str("conn", string(conn)).Str("room", string(room)).Msg("depart")

	return []Outbound{
		rt.presence(room, stayers),
		rt.notice(connIDs(stayers), fmt.Sprintf(format, name), ""),
	}
}

func (rt *Router) presence(room domain.RoomID, members []MemberInfo) Outbound {
	sorted := append([]MemberInfo(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	return Outbound{
		To:      connIDs(members),
		Payload: UsersPayload{Type: EventRoomUsers, Room: room, Users: sorted},
	}
}

func (rt *Router) notice(to []domain.ConnID, text, code string) Outbound {
	return Outbound{
		To:      to,
		Payload: SystemPayload{Type: EventSystemMessage, Message: text, Timestamp: rt.now().UTC(), Code: code},
	}
}

func connIDs(members []MemberInfo) []domain.ConnID {
	ids := make([]domain.ConnID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}
