// Package domain contains entity types without logic, just meta-data
// and input normalization shared by every layer.
package domain

type (
	RoomID string
	ConnID string
)

// Room is static configuration: the room set is fixed at startup and
// never created or destroyed at runtime.
type Room struct {
	ID    RoomID `json:"id"`
	Label string `json:"label"`
}
