// SPDX-License-Identifier: MIT

// Package meeting holds the meeting domain model and the lifecycle manager
// that drives a meeting from submission to a terminal state.
package meeting

import (
	"strconv"
	"time"
)

// Status is the client-visible lifecycle state of a meeting.
// It only moves forward: processing -> completed or processing -> failed.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Language is the advisory primary language of the recording. It never
// affects the lifecycle.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageMandarin  Language = "mandarin"
	LanguageCantonese Language = "cantonese"
	LanguageMixed     Language = "mixed"
)

// Valid reports whether l is one of the known languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageMandarin, LanguageCantonese, LanguageMixed:
		return true
	}
	return false
}

// ParseLanguage maps raw client input to a Language.
func ParseLanguage(raw string) (Language, error) {
	l := Language(raw)
	if !l.Valid() {
		return "", &ValidationError{Field: "primary_language", Reason: "unknown language " + strconv.Quote(raw)}
	}
	return l, nil
}

// TranscriptLine is a single utterance with an optional speaker label.
type TranscriptLine struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// ActionItem is a structured to-do extracted from the meeting.
type ActionItem struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

// Decision is a structured statement of a decision reached in the meeting.
type Decision struct {
	Text string `json:"text"`
}

// Artifacts is the derived content of a completed meeting. A meeting carries
// artifacts exactly when its status is completed; completion writes all of
// them in one step.
type Artifacts struct {
	Transcript   []TranscriptLine `json:"transcript"`
	Summary      string           `json:"summary"`
	ActionItems  []ActionItem     `json:"action_items"`
	Decisions    []Decision       `json:"decisions"`
	Participants []string         `json:"participants"`
}

// normalize replaces nil sequences with empty ones so a completed meeting
// always exposes all artifact fields.
func (a *Artifacts) normalize() {
	if a.Transcript == nil {
		a.Transcript = []TranscriptLine{}
	}
	if a.ActionItems == nil {
		a.ActionItems = []ActionItem{}
	}
	if a.Decisions == nil {
		a.Decisions = []Decision{}
	}
	if a.Participants == nil {
		a.Participants = []string{}
	}
}

// Meeting is the store source of truth for one recorded meeting session.
type Meeting struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Language     Language   `json:"primary_language"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	Duration     string     `json:"duration,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Artifacts    *Artifacts `json:"artifacts,omitempty"`
}

// Clone returns a deep copy. Stores hand out clones so readers never observe
// a record mid-mutation.
func (m *Meeting) Clone() *Meeting {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Artifacts != nil {
		a := *m.Artifacts
		a.Transcript = append([]TranscriptLine(nil), m.Artifacts.Transcript...)
		a.ActionItems = append([]ActionItem(nil), m.Artifacts.ActionItems...)
		a.Decisions = append([]Decision(nil), m.Artifacts.Decisions...)
		a.Participants = append([]string(nil), m.Artifacts.Participants...)
		cp.Artifacts = &a
	}
	return &cp
}

// Listing is the compact list-view projection used by "recent meetings"
// style consumers.
type Listing struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
	Duration  string    `json:"duration,omitempty"`
	Language  Language  `json:"primary_language"`
}

// ListingOf projects a full meeting record onto its list entry.
func ListingOf(m *Meeting) Listing {
	return Listing{
		ID:        m.ID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		Status:    m.Status,
		Duration:  m.Duration,
		Language:  m.Language,
	}
}
