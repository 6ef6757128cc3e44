package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSendReviewLink_PostsToRelay(t *testing.T) {
	var got message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(Config{
		APIURL:       srv.URL,
		APIKey:       "k",
		From:         "no-reply@rooms.local",
		ReviewLink:   "https://rooms.local/reservations/%d/review",
		RatingWindow: 72 * time.Hour,
	}, nil)

	require.NoError(t, c.SendReviewLink(context.Background(), 7, 42))
	c.Wait()

	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, int64(7), got.ToUserID)
	assert.Equal(t, "https://rooms.local/reservations/42/review", got.Link)
	assert.Equal(t, "no-reply@rooms.local", got.From)
	assert.Contains(t, got.Body, "You have 3 days to leave a rating")
}

func TestSendReviewLink_RelayFailureIsLogged(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	c := New(Config{APIURL: srv.URL, ReviewLink: "https://rooms.local"}, zap.New(core))

	require.NoError(t, c.SendReviewLink(context.Background(), 7, 42))
	c.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 1, logs.FilterMessage("review link mail failed").Len())
}

func TestSendReviewLink_NoRelayOnlyLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := New(Config{ReviewLink: "https://rooms.local/"}, zap.New(core))

	require.NoError(t, c.SendReviewLink(context.Background(), 7, 42))
	c.Wait()

	entries := logs.FilterMessage("mail relay not configured, skipping review link").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://rooms.local/reservations/42/review", entries[0].ContextMap()["link"])
}
