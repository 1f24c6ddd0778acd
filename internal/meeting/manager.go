// SPDX-License-Identifier: MIT

package meeting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	xlog "github.com/meetscribe/meetscribe/internal/log"
)

// Store is the durable keyed storage the lifecycle depends on. Get returns
// (nil, nil) when the identifier is unknown; callers must check for nil.
// Update applies fn under the store's per-record write serialization and
// persists the result atomically, returning ErrNotFound for unknown ids.
// Delete removes the record and all artifacts in one step, returning
// ErrNotFound when absent.
type Store interface {
	Put(ctx context.Context, m *Meeting) error
	Get(ctx context.Context, id string) (*Meeting, error)
	Update(ctx context.Context, id string, fn func(*Meeting) error) (*Meeting, error)
	List(ctx context.Context) ([]*Meeting, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Manager owns the meeting state machine. It records outcomes reported by
// the external transcription/summarization collaborator; it never retries
// that work itself.
type Manager struct {
	store Store
	clock func() time.Time
	newID func() string
}

// ManagerOption allows functional configuration of the Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source (for tests).
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// WithIDFunc overrides identifier generation (for tests).
func WithIDFunc(fn func() string) ManagerOption {
	return func(m *Manager) { m.newID = fn }
}

// NewManager constructs a Manager backed by the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		clock: time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates the upload intake, assigns a fresh identifier and
// persists the meeting in processing state before returning it.
func (mg *Manager) Submit(ctx context.Context, title string, lang Language, audio AudioRef) (*Meeting, error) {
	if err := validateSubmission(title, lang, audio); err != nil {
		return nil, err
	}

	m := &Meeting{
		ID:        mg.newID(),
		Title:     strings.TrimSpace(title),
		Language:  lang,
		Status:    StatusProcessing,
		CreatedAt: mg.clock().UTC(),
	}

	if err := mg.store.Put(ctx, m); err != nil {
		return nil, &StorageError{Op: "put", ID: m.ID, Err: err}
	}

	logger := xlog.WithComponentFromContext(ctx, "lifecycle")
	logger.Info().
		Str(xlog.FieldEvent, "meeting.submitted").
		Str(xlog.FieldMeetingID, m.ID).
		Str("language", string(lang)).
		Msg("meeting submitted for processing")

	return m, nil
}

// Complete records a successful processing callback. All artifacts and the
// terminal status are written in one atomic step; a callback against a
// meeting that is no longer processing is rejected with ErrInvalidState so
// duplicate callbacks cannot overwrite a settled meeting.
func (mg *Manager) Complete(ctx context.Context, id string, artifacts Artifacts, duration string) error {
	updated, err := mg.store.Update(ctx, id, func(m *Meeting) error {
		if m.Status != StatusProcessing {
			return fmt.Errorf("meeting %s is %s: %w", id, m.Status, ErrInvalidState)
		}
		artifacts.normalize()
		m.Artifacts = &artifacts
		m.Duration = duration
		m.Status = StatusCompleted
		m.ErrorMessage = ""
		return nil
	})
	if err != nil {
		return mg.transitionErr("complete", id, err)
	}

	mg.logTransition(ctx, updated)
	return nil
}

// Fail records a failed processing callback, with the same idempotency
// guard as Complete.
func (mg *Manager) Fail(ctx context.Context, id, errorMessage string) error {
	updated, err := mg.store.Update(ctx, id, func(m *Meeting) error {
		if m.Status != StatusProcessing {
			return fmt.Errorf("meeting %s is %s: %w", id, m.Status, ErrInvalidState)
		}
		m.Status = StatusFailed
		m.ErrorMessage = errorMessage
		m.Artifacts = nil
		return nil
	})
	if err != nil {
		return mg.transitionErr("fail", id, err)
	}

	mg.logTransition(ctx, updated)
	return nil
}

// Get loads one meeting, returning ErrNotFound for unknown identifiers.
func (mg *Manager) Get(ctx context.Context, id string) (*Meeting, error) {
	m, err := mg.store.Get(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}
	if m == nil {
		return nil, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	return m, nil
}

// List returns meeting summaries ordered most-recent first, falling back to
// identifier order when creation times are equal, so "newest N" views are
// deterministic.
func (mg *Manager) List(ctx context.Context) ([]Listing, error) {
	all, err := mg.store.List(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	listings := make([]Listing, 0, len(all))
	for _, m := range all {
		listings = append(listings, ListingOf(m))
	}
	return listings, nil
}

// Remove deletes the meeting and all artifacts. A processing callback that
// races with Remove and loses observes ErrNotFound afterwards.
func (mg *Manager) Remove(ctx context.Context, id string) error {
	if err := mg.store.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("meeting %s: %w", id, ErrNotFound)
		}
		return &StorageError{Op: "delete", ID: id, Err: err}
	}

	logger := xlog.WithComponentFromContext(ctx, "lifecycle")
	logger.Info().
		Str(xlog.FieldEvent, "meeting.removed").
		Str(xlog.FieldMeetingID, id).
		Msg("meeting removed")
	return nil
}

// transitionErr classifies an Update failure into the error taxonomy.
func (mg *Manager) transitionErr(op, id string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	if isInvalidState(err) {
		return err
	}
	return &StorageError{Op: op, ID: id, Err: err}
}

func (mg *Manager) logTransition(ctx context.Context, m *Meeting) {
	logger := xlog.WithComponentFromContext(ctx, "lifecycle")
	logger.Info().
		Str(xlog.FieldEvent, "meeting.transition").
		Str(xlog.FieldMeetingID, m.ID).
		Str(xlog.FieldOldStatus, string(StatusProcessing)).
		Str(xlog.FieldNewStatus, string(m.Status)).
		Msg("meeting reached terminal state")
}
