// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe/internal/api"
	"github.com/meetscribe/meetscribe/internal/config"
	"github.com/meetscribe/meetscribe/internal/export"
	"github.com/meetscribe/meetscribe/internal/meeting"
	"github.com/meetscribe/meetscribe/internal/store"
)

// newTestDaemon starts a full API server backed by the in-memory store and
// returns the client plus the manager for driving processing callbacks.
func newTestDaemon(t *testing.T) (*Client, *meeting.Manager) {
	t.Helper()

	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.StoreBackend = "memory"
	cfg.RateLimitRPM = 0

	manager := meeting.NewManager(store.NewMemoryStore())
	srv := httptest.NewServer(api.New(cfg, manager, export.NotesExporter{}).Handler())
	t.Cleanup(srv.Close)

	return New(srv.URL), manager
}

func uploadOne(t *testing.T, c *Client) string {
	t.Helper()
	id, status, err := c.Upload(context.Background(), "Design Review",
		meeting.LanguageEnglish, "review.mp3", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	require.Equal(t, meeting.StatusProcessing, status)
	return id
}

func TestClientUploadAndGet(t *testing.T) {
	c, _ := newTestDaemon(t)
	id := uploadOne(t, c)

	m, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Design Review", m.Title)
	assert.Equal(t, meeting.StatusProcessing, m.Status)
}

func TestClientGetUnknownID(t *testing.T) {
	c, _ := newTestDaemon(t)

	_, err := c.Get(context.Background(), "nope")
	require.ErrorIs(t, err, meeting.ErrNotFound)
}

func TestClientUploadValidationError(t *testing.T) {
	c, _ := newTestDaemon(t)

	_, _, err := c.Upload(context.Background(), "", meeting.LanguageEnglish,
		"review.mp3", strings.NewReader("audio"))
	require.Error(t, err)
	assert.True(t, meeting.IsValidation(err))
}

func TestClientFullLifecycle(t *testing.T) {
	c, manager := newTestDaemon(t)
	ctx := context.Background()
	id := uploadOne(t, c)

	require.NoError(t, manager.Complete(ctx, id, meeting.Artifacts{
		Summary:    "Agreed on the new API design.",
		Transcript: []meeting.TranscriptLine{{Speaker: "Sam", Text: "The design holds up."}},
	}, "12:00"))

	m, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusCompleted, m.Status)
	require.NotNil(t, m.Artifacts)

	res, err := c.Search(ctx, id, "design")
	require.NoError(t, err)
	require.NotNil(t, res.SummaryMatch)
	assert.Len(t, res.TranscriptMatches, 1)

	data, contentType, err := c.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.Contains(t, string(data), "Agreed on the new API design.")

	listings, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, id, listings[0].ID)

	require.NoError(t, c.Remove(ctx, id))
	_, err = c.Get(ctx, id)
	require.ErrorIs(t, err, meeting.ErrNotFound)
}

func TestClientSearchOnProcessingMeeting(t *testing.T) {
	c, _ := newTestDaemon(t)
	id := uploadOne(t, c)

	_, err := c.Search(context.Background(), id, "anything")
	require.ErrorIs(t, err, meeting.ErrInvalidState)
}

func TestClientExportOnProcessingMeeting(t *testing.T) {
	c, _ := newTestDaemon(t)
	id := uploadOne(t, c)

	_, _, err := c.Export(context.Background(), id)
	require.ErrorIs(t, err, meeting.ErrInvalidState)
}

func TestClientWatchDeliversTerminalRecord(t *testing.T) {
	c, manager := newTestDaemon(t)
	ctx := context.Background()
	id := uploadOne(t, c)

	require.NoError(t, manager.Fail(ctx, id, "backend gave up"))

	terminal := make(chan meeting.Status, 1)
	w := c.Watch(ctx, id, 10*time.Millisecond, func(m *meeting.Meeting) {
		if m.Status.IsTerminal() {
			select {
			case terminal <- m.Status:
			default:
			}
		}
	})

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not settle")
	}

	select {
	case status := <-terminal:
		assert.Equal(t, meeting.StatusFailed, status)
	default:
		t.Fatal("terminal record never delivered")
	}
}

func TestDecodeErrorUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
