package domain

import "time"

// Message is immutable once appended to a room history.
type Message struct {
	ID     string    `json:"id"`
	Author string    `json:"author"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// MessageBody trims raw chat text. ok is false when nothing is left,
// in which case the event must be dropped without a notice.
func MessageBody(raw string) (body string, ok bool) {
	body = trimClip(raw, MaxBodyLen)
	return body, body != ""
}
