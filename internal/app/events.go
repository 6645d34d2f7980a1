package app

import (
	"time"

	"github.com/peerline/peerchat/internal/domain"
)

// Wire event names, shared by router and transport.
const (
	EventJoinRoom    = "join_room"
	EventChatMessage = "chat_message"
	EventLeaveRoom   = "leave_room"

	EventChatHistory   = "chat_history"
	EventRoomUsers     = "room_users"
	EventSystemMessage = "system_message"
)

// Machine-readable codes carried on error notices.
const (
	CodeUnknownRoom = "unknown_room"
	CodeRateLimited = "rate_limited"
)

// Outbound is one server->client delivery produced by the router. The
// transport resolves the recipient ids to live sockets; a recipient
// that is gone by then is simply skipped.
type Outbound struct {
	To      []domain.ConnID
	Payload any
}

type HistoryPayload struct {
	Type     string           `json:"type"`
	Room     domain.RoomID    `json:"room"`
	Messages []domain.Message `json:"messages"`
}

type UsersPayload struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	Users []MemberInfo  `json:"users"`
}

type MessagePayload struct {
	Type    string         `json:"type"`
	Room    domain.RoomID  `json:"room"`
	Message domain.Message `json:"message"`
}

type SystemPayload struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Code      string    `json:"code,omitempty"`
}
