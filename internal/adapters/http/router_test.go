package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peerline/peerchat/internal/adapters/ws"
	"github.com/peerline/peerchat/internal/app"
	"github.com/peerline/peerchat/internal/config"
	"github.com/peerline/peerchat/internal/domain"
)

type failingAgent struct{}

func (failingAgent) Complete(context.Context, string) (string, error) {
	return "", errors.New("agent unreachable")
}

func testServer(t *testing.T, agent app.Agent) (*httptest.Server, *app.RoomStore) {
	t.Helper()
	cfg := &config.Config{
		Mode:          "release",
		AllowedOrigin: "*",
		Secret:        "test",
		PingPeriod:    time.Minute,
	}
	store := app.NewRoomStore([]domain.Room{
		{ID: "engineering", Label: "Engineering"},
		{ID: "science", Label: "Science"},
	}, 200)
	router := app.NewRouter(app.NewRegistry(), store)
	ctrl := ws.NewController(router, cfg)
	summarizer := app.NewSummarizer(store, agent, time.Second, 40)

	srv := httptest.NewServer(SetupRouter(context.Background(), cfg, store, ctrl, summarizer))
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestSummaryUnknownRoom(t *testing.T) {
	req := require.New(t)
	srv, _ := testServer(t, nil)

	status, body := getJSON(t, srv.URL+"/summary/unknown-room")
	req.Equal(http.StatusNotFound, status)
	req.Equal("room not found", body["summary"])
}

func TestSummaryEmptyRoom(t *testing.T) {
	req := require.New(t)
	srv, _ := testServer(t, nil)

	status, body := getJSON(t, srv.URL+"/summary/science")
	req.Equal(http.StatusOK, status)
	req.NotEmpty(body["summary"])
}

func TestSummaryStillOKWhenAgentFails(t *testing.T) {
	req := require.New(t)
	srv, store := testServer(t, failingAgent{})

	for i, text := range []string{"first", "second", "third"} {
		store.AppendMessage("engineering", domain.Message{
			ID: string(rune('a' + i)), Author: "Alex", Body: text, SentAt: time.Now(),
		})
	}

	status, body := getJSON(t, srv.URL+"/summary/engineering")
	req.Equal(http.StatusOK, status)
	summary, _ := body["summary"].(string)
	req.NotEmpty(summary)
	req.Contains(summary, "third")
}

func TestRoomsEndpoint(t *testing.T) {
	req := require.New(t)
	srv, _ := testServer(t, nil)

	status, body := getJSON(t, srv.URL+"/api/rooms")
	req.Equal(http.StatusOK, status)
	rooms, ok := body["rooms"].([]any)
	req.True(ok)
	req.Len(rooms, 2)
}
