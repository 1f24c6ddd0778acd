// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe/internal/meeting"
)

func sampleMeeting(id string, created time.Time) *meeting.Meeting {
	return &meeting.Meeting{
		ID:        id,
		Title:     "Sprint Review " + id,
		Language:  meeting.LanguageEnglish,
		Status:    meeting.StatusProcessing,
		CreatedAt: created,
	}
}

// runStoreConformance exercises the MeetingStore contract shared by every
// backend: Get on unknown id yields (nil, nil), Update and Delete yield
// ErrNotFound, a failed Update mutation leaves the record untouched, and
// artifacts survive a write/read round trip.
func runStoreConformance(t *testing.T, newStore func(t *testing.T) meeting.Store) {
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 13, 30, 0, 0, time.UTC)

	t.Run("get unknown id", func(t *testing.T) {
		s := newStore(t)
		m, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("a", base)))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sprint Review a", got.Title)
		assert.Equal(t, meeting.StatusProcessing, got.Status)
		assert.True(t, got.CreatedAt.Equal(base))
	})

	t.Run("update transitions and persists artifacts", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("b", base)))

		updated, err := s.Update(ctx, "b", func(m *meeting.Meeting) error {
			m.Status = meeting.StatusCompleted
			m.Duration = "31:05"
			m.Artifacts = &meeting.Artifacts{
				Summary:      "Reviewed all sprint goals.",
				Transcript:   []meeting.TranscriptLine{{Speaker: "Dana", Text: "Demo went well."}},
				ActionItems:  []meeting.ActionItem{{Text: "Ship it", Assignee: "Dana", DueDate: "2026-05-09"}},
				Decisions:    []meeting.Decision{{Text: "Release on Friday."}},
				Participants: []string{"Dana", "Eve"},
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusCompleted, updated.Status)

		got, err := s.Get(ctx, "b")
		require.NoError(t, err)
		require.NotNil(t, got.Artifacts)
		assert.Equal(t, "Reviewed all sprint goals.", got.Artifacts.Summary)
		require.Len(t, got.Artifacts.Transcript, 1)
		assert.Equal(t, "Dana", got.Artifacts.Transcript[0].Speaker)
		assert.Equal(t, []string{"Dana", "Eve"}, got.Artifacts.Participants)
		assert.Equal(t, "31:05", got.Duration)
	})

	t.Run("failed update leaves record untouched", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("c", base)))

		boom := errors.New("guard fired")
		_, err := s.Update(ctx, "c", func(m *meeting.Meeting) error {
			m.Status = meeting.StatusFailed
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusProcessing, got.Status)
	})

	t.Run("update unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(ctx, "missing", func(m *meeting.Meeting) error { return nil })
		require.ErrorIs(t, err, meeting.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("d", base)))
		require.NoError(t, s.Delete(ctx, "d"))

		got, err := s.Get(ctx, "d")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.ErrorIs(t, s.Delete(ctx, "d"), meeting.ErrNotFound)
	})

	t.Run("concurrent transitions exactly one wins", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("race", base)))

		transition := func(to meeting.Status) error {
			_, err := s.Update(ctx, "race", func(m *meeting.Meeting) error {
				if m.Status != meeting.StatusProcessing {
					return fmt.Errorf("meeting race is %s: %w", m.Status, meeting.ErrInvalidState)
				}
				m.Status = to
				return nil
			})
			return err
		}

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				to := meeting.StatusCompleted
				if i%2 == 1 {
					to = meeting.StatusFailed
				}
				errs[i] = transition(to)
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			// the loser must observe the settled row and fail its guard,
			// never a busy or lock error from the backend
			require.ErrorIs(t, err, meeting.ErrInvalidState)
		}
		assert.Equal(t, 1, wins)

		got, err := s.Get(ctx, "race")
		require.NoError(t, err)
		assert.True(t, got.Status.IsTerminal())
	})

	t.Run("list returns all records", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleMeeting("e1", base)))
		require.NoError(t, s.Put(ctx, sampleMeeting("e2", base.Add(time.Minute))))

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestOpenBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := Open("memory", "")
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("default is memory", func(t *testing.T) {
		s, err := Open("", "")
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		_, err := Open("sqlite", "")
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open("etcd", "")
		require.Error(t, err)
	})
}
