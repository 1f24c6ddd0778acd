// SPDX-License-Identifier: MIT

// Package export defines the document export collaborator boundary. Real
// PDF rendering is an external concern; the daemon only requires a pure
// function from a completed meeting to a binary document.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/meetscribe/meetscribe/internal/meeting"
)

// Exporter renders a completed meeting into a downloadable document. A
// failed export must not mutate the meeting; implementations get a deep
// copy and no store access.
type Exporter interface {
	Export(ctx context.Context, m *meeting.Meeting) (data []byte, contentType string, err error)
}

// NotesExporter is the built-in plain-text renderer used until a real PDF
// collaborator is wired in.
type NotesExporter struct{}

func (NotesExporter) Export(ctx context.Context, m *meeting.Meeting) ([]byte, string, error) {
	if m.Artifacts == nil {
		return nil, "", fmt.Errorf("meeting %s has no artifacts to export", m.ID)
	}

	var buf bytes.Buffer
	a := m.Artifacts

	fmt.Fprintf(&buf, "%s\n", m.Title)
	fmt.Fprintf(&buf, "Date: %s", m.CreatedAt.Format("2006-01-02"))
	if m.Duration != "" {
		fmt.Fprintf(&buf, "  Duration: %s", m.Duration)
	}
	buf.WriteString("\n\n")

	if len(a.Participants) > 0 {
		buf.WriteString("Participants\n")
		for _, p := range a.Participants {
			fmt.Fprintf(&buf, "  - %s\n", p)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("Summary\n")
	fmt.Fprintf(&buf, "  %s\n\n", a.Summary)

	if len(a.ActionItems) > 0 {
		buf.WriteString("Action Items\n")
		for _, item := range a.ActionItems {
			fmt.Fprintf(&buf, "  - %s", item.Text)
			if item.Assignee != "" {
				fmt.Fprintf(&buf, " (%s", item.Assignee)
				if item.DueDate != "" {
					fmt.Fprintf(&buf, ", due %s", item.DueDate)
				}
				buf.WriteString(")")
			} else if item.DueDate != "" {
				fmt.Fprintf(&buf, " (due %s)", item.DueDate)
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	if len(a.Decisions) > 0 {
		buf.WriteString("Decisions\n")
		for _, d := range a.Decisions {
			fmt.Fprintf(&buf, "  - %s\n", d.Text)
		}
		buf.WriteString("\n")
	}

	if len(a.Transcript) > 0 {
		buf.WriteString("Transcript\n")
		for _, line := range a.Transcript {
			if line.Speaker != "" {
				fmt.Fprintf(&buf, "  %s: %s\n", line.Speaker, line.Text)
			} else {
				fmt.Fprintf(&buf, "  %s\n", line.Text)
			}
		}
	}

	return buf.Bytes(), "text/plain; charset=utf-8", nil
}
