// SPDX-License-Identifier: MIT

// Package store provides MeetingStore implementations: an in-memory store
// for tests and local iteration, and a durable SQLite store for production.
package store

import (
	"context"
	"sync"

	"github.com/meetscribe/meetscribe/internal/meeting"
)

// MemoryStore is an in-memory meeting store intended for tests and local
// iteration. Not durable.
type MemoryStore struct {
	mu       sync.RWMutex
	meetings map[string]*meeting.Meeting
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings: make(map[string]*meeting.Meeting),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Put(ctx context.Context, m *meeting.Meeting) error {
	s.mu.Lock()
	s.meetings[m.ID] = m.Clone()
	s.mu.Unlock()
	return nil
}

// Get returns a deep copy so readers never observe a record mid-mutation.
// Unknown ids yield (nil, nil).
func (s *MemoryStore) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	s.mu.RLock()
	rec, ok := s.meetings[id]
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	cp := rec.Clone()
	s.mu.RUnlock()
	return cp, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*meeting.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*meeting.Meeting, 0, len(s.meetings))
	for _, rec := range s.meetings {
		list = append(list, rec.Clone())
	}
	return list, nil
}

// Update applies fn to a working copy under the store lock and saves it back
// only when fn succeeds, so concurrent transitions for the same id are
// serialized and a failed transition leaves the record untouched.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*meeting.Meeting) error) (*meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.meetings[id]
	if !ok {
		return nil, meeting.ErrNotFound
	}

	cp := rec.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	s.meetings[id] = cp
	return cp.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[id]; !ok {
		return meeting.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}
