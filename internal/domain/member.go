package domain

import "strings"

const (
	MaxNameLen      = 36
	MaxBodyLen      = 2000
	PlaceholderName = "Friend"
)

// DisplayName normalizes a raw join name: trimmed, clipped, and
// substituted with the placeholder when nothing is left.
func DisplayName(raw string) string {
	name := trimClip(raw, MaxNameLen)
	if name == "" {
		return PlaceholderName
	}
	return name
}

func trimClip(raw string, max int) string {
	s := strings.TrimSpace(raw)
	if r := []rune(s); len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}
	return s
}
