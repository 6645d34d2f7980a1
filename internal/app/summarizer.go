package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/domain"
)

const (
	DefaultSummaryWindow  = 40
	DefaultSummaryTimeout = 10 * time.Second

	emptySummary   = "No conversation yet. Once people start chatting, a summary will appear here."
	fallbackLeadIn = "Latest from the room: "
	fallbackLines  = 3
)

// Agent is the external text-generation collaborator. Implementations
// must honor ctx cancellation; everything else about their failure
// modes is absorbed by the summarizer.
type Agent interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces an on-demand digest of a room's recent history.
// It is two-tier: ask the agent within a timeout, and on any failure
// (unreachable, error status, empty reply, no agent configured) fall
// back to a pure local transform. Summaries are computed fresh on every
// call, nothing is cached.
type Summarizer struct {
	store   *RoomStore
	agent   Agent
	timeout time.Duration
	window  int
}

// NewSummarizer accepts agent == nil for fallback-only mode.
func NewSummarizer(store *RoomStore, agent Agent, timeout time.Duration, window int) *Summarizer {
	if timeout <= 0 {
		timeout = DefaultSummaryTimeout
	}
	if window <= 0 {
		window = DefaultSummaryWindow
	}
	return &Summarizer{store: store, agent: agent, timeout: timeout, window: window}
}

// Summarize never fails: it always returns some text for a known room.
// Unknown rooms yield the empty-conversation string; the HTTP layer is
// responsible for turning those into a 404 before calling here.
func (s *Summarizer) Summarize(ctx context.Context, room domain.RoomID) string {
	history := s.store.RecentHistory(room, s.window)
	if len(history) == 0 {
		return emptySummary
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Author, m.Body))
	}

	if s.agent != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		text, err := s.agent.Complete(ctx, buildPrompt(lines))
		if err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
			err = fmt.Errorf("empty agent reply")
		}
		log.Warn().Err(err).Str("module", "app.summarizer").Str("room", string(room)).Msg("agent unavailable, using fallback")
	}
	return fallbackSummary(lines)
}

func buildPrompt(lines []string) string {
	var b strings.Builder
	b.WriteString("Summarize the chat transcript below in at most 120 words. ")
	b.WriteString("Surface the main themes, the overall tone, and any action items.\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// fallbackSummary is a pure transform over the transcript and must
// never fail; the last few lines are joined into one sentence.
func fallbackSummary(lines []string) string {
	if len(lines) > fallbackLines {
		lines = lines[len(lines)-fallbackLines:]
	}
	return fallbackLeadIn + strings.Join(lines, "; ") + "."
}
