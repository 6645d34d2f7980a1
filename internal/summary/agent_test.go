package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientComplete(t *testing.T) {
	req := require.New(t)

	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		req.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte("a short digest"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", time.Second)
	out, err := c.Complete(context.Background(), "summarize this")

	req.NoError(err)
	req.Equal("a short digest", out)
	req.Equal("Bearer secret-key", gotAuth)
	req.Equal("summarize this", gotBody["message"])
}

func TestClientCompleteNoKey(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Empty(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	out, err := c.Complete(context.Background(), "hi")
	req.NoError(err)
	req.Equal("ok", out)
}

func TestClientCompleteErrorStatus(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Complete(context.Background(), "hi")
	req.Error(err)
	req.Contains(err.Error(), "502")
}

func TestClientCompleteUnreachable(t *testing.T) {
	req := require.New(t)

	c := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond)
	_, err := c.Complete(context.Background(), "hi")
	req.Error(err)
}

func TestClientCompleteContextTimeout(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Complete(ctx, "hi")
	req.Error(err)
}
