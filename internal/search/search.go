// SPDX-License-Identifier: MIT

// Package search implements cross-artifact search over a completed meeting:
// case-insensitive literal substring matching against summary text,
// transcript lines, action items and decisions, with per-category results
// for client-side highlighting.
package search

import (
	"fmt"
	"strings"

	"github.com/meetscribe/meetscribe/internal/meeting"
)

// Category names the artifact category a client should surface first.
type Category string

const (
	CategorySummary     Category = "summary"
	CategoryTranscript  Category = "transcript"
	CategoryActionItems Category = "action_items"
	CategoryDecisions   Category = "decisions"
	CategoryNone        Category = ""
)

// Result carries the categorized match sets. Matched values are returned
// verbatim (original case and whitespace) so any renderer can locate and
// wrap the matched substring deterministically. Sequence categories are
// empty, never absent, when nothing matches.
type Result struct {
	SummaryMatch      *string                  `json:"summary_match,omitempty"`
	TranscriptMatches []meeting.TranscriptLine `json:"transcript_matches"`
	ActionItemMatches []meeting.ActionItem     `json:"action_item_matches"`
	DecisionMatches   []meeting.Decision       `json:"decision_matches"`
}

// InMeeting searches the meeting's artifacts for query. The query is treated
// as literal text: characters meaningful to pattern engines match only
// themselves. Searching a meeting that is not completed fails with
// meeting.ErrInvalidState; an empty query is a validation error.
func InMeeting(m *meeting.Meeting, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &meeting.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if m.Status != meeting.StatusCompleted {
		return nil, fmt.Errorf("meeting %s is %s: %w", m.ID, m.Status, meeting.ErrInvalidState)
	}

	needle := strings.ToLower(query)
	res := &Result{
		TranscriptMatches: []meeting.TranscriptLine{},
		ActionItemMatches: []meeting.ActionItem{},
		DecisionMatches:   []meeting.Decision{},
	}

	a := m.Artifacts
	if a == nil {
		// Completed meetings always carry artifacts; guard against a
		// corrupted record rather than panic.
		return res, nil
	}

	if contains(a.Summary, needle) {
		summary := a.Summary
		res.SummaryMatch = &summary
	}
	for _, line := range a.Transcript {
		if contains(line.Text, needle) {
			res.TranscriptMatches = append(res.TranscriptMatches, line)
		}
	}
	for _, item := range a.ActionItems {
		if contains(item.Text, needle) {
			res.ActionItemMatches = append(res.ActionItemMatches, item)
		}
	}
	for _, d := range a.Decisions {
		if contains(d.Text, needle) {
			res.DecisionMatches = append(res.DecisionMatches, d)
		}
	}

	return res, nil
}

// PrimaryCategory derives the single most relevant category for the client
// to display, with a fixed priority: summary, then transcript, then action
// items, then decisions. It is reproducible from the four match fields alone.
func (r *Result) PrimaryCategory() Category {
	switch {
	case r.SummaryMatch != nil:
		return CategorySummary
	case len(r.TranscriptMatches) > 0:
		return CategoryTranscript
	case len(r.ActionItemMatches) > 0:
		return CategoryActionItems
	case len(r.DecisionMatches) > 0:
		return CategoryDecisions
	default:
		return CategoryNone
	}
}

// HasMatches reports whether any category matched.
func (r *Result) HasMatches() bool {
	return r.PrimaryCategory() != CategoryNone
}

// contains does case-insensitive literal substring containment. needle must
// already be lower-cased.
func contains(text, needle string) bool {
	return strings.Contains(strings.ToLower(text), needle)
}
