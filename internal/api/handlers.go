// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/renameio/v2"

	"github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
	"github.com/meetscribe/meetscribe/internal/search"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing; larger
// payloads spill to disk.
const multipartMemoryLimit = 32 << 20

type uploadResponse struct {
	ID     string         `json:"id"`
	Status meeting.Status `json:"status"`
}

// handleUpload accepts the multipart upload intake (audio_file, title,
// primary_language), creates the meeting in processing state and persists
// the audio payload for the external processing collaborator.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeDomainError(w, r, &meeting.ValidationError{Field: "body", Reason: "malformed or oversized multipart payload"})
		return
	}

	lang, err := meeting.ParseLanguage(r.FormValue("primary_language"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	file, hdr, err := r.FormFile("audio_file")
	if err != nil {
		writeDomainError(w, r, &meeting.ValidationError{Field: "audio_file", Reason: "missing audio payload"})
		return
	}
	defer func() { _ = file.Close() }()

	audio := meeting.AudioRef{
		Name:      hdr.Filename,
		MediaType: hdr.Header.Get("Content-Type"),
	}

	m, err := s.manager.Submit(r.Context(), r.FormValue("title"), lang, audio)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.saveAudio(m.ID, audio.Name, file); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "upload.persist_failed").
			Str(log.FieldMeetingID, m.ID).
			Msg("failed to persist audio payload")
		// The meeting exists; record the failure instead of leaving it
		// processing forever with no audio behind it.
		if ferr := s.manager.Fail(r.Context(), m.ID, "audio payload could not be persisted"); ferr != nil {
			logger.Error().
				Err(ferr).
				Str(log.FieldMeetingID, m.ID).
				Msg("failed to mark meeting as failed")
		}
		writeProblem(w, r, http.StatusInternalServerError,
			"meetings/internal", "Internal Server Error", "failed to persist audio payload")
		return
	}

	recordUpload()
	writeJSON(w, http.StatusCreated, uploadResponse{ID: m.ID, Status: m.Status})
}

// saveAudio writes the uploaded payload atomically under the data dir.
func (s *Server) saveAudio(id, name string, payload io.Reader) error {
	dir := filepath.Join(s.cfg.DataDir, "audio")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	path := filepath.Join(dir, id+ext)

	// renameio handles temp file creation, fsync, atomic rename and cleanup
	// on error.
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending audio file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, payload); err != nil {
		return fmt.Errorf("write audio payload: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace audio file: %w", err)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listings, err := s.manager.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")
	m, err := s.manager.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")
	if err := s.manager.Remove(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Transcript   []meeting.TranscriptLine `json:"transcript"`
	Summary      string                   `json:"summary"`
	ActionItems  []meeting.ActionItem     `json:"action_items"`
	Decisions    []meeting.Decision       `json:"decisions"`
	Participants []string                 `json:"participants"`
	Duration     string                   `json:"duration"`
}

// handleComplete records a successful processing outcome reported by the
// external collaborator. Duplicate callbacks for a settled meeting get 409.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, r, &meeting.ValidationError{Field: "body", Reason: "malformed JSON payload"})
		return
	}

	artifacts := meeting.Artifacts{
		Transcript:   req.Transcript,
		Summary:      req.Summary,
		ActionItems:  req.ActionItems,
		Decisions:    req.Decisions,
		Participants: req.Participants,
	}
	if err := s.manager.Complete(r.Context(), id, artifacts, req.Duration); err != nil {
		writeDomainError(w, r, err)
		return
	}

	recordTransition(string(meeting.StatusCompleted))
	w.WriteHeader(http.StatusNoContent)
}

type failRequest struct {
	ErrorMessage string `json:"error_message"`
}

// handleFail records a failed processing outcome, with the same idempotency
// guard as handleComplete.
func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")

	var req failRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, r, &meeting.ValidationError{Field: "body", Reason: "malformed JSON payload"})
		return
	}

	if err := s.manager.Fail(r.Context(), id, req.ErrorMessage); err != nil {
		writeDomainError(w, r, err)
		return
	}

	recordTransition(string(meeting.StatusFailed))
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch loads the meeting and delegates to the search engine.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")

	m, err := s.manager.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	start := time.Now()
	res, err := search.InMeeting(m, r.URL.Query().Get("query"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	recordSearch(string(res.PrimaryCategory()), time.Since(start))
	writeJSON(w, http.StatusOK, res)
}

// handleExport renders the completed meeting through the export
// collaborator. A failed export leaves the meeting untouched.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "meetingID")

	m, err := s.manager.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if m.Status != meeting.StatusCompleted {
		writeDomainError(w, r, fmt.Errorf("meeting %s is %s: %w", m.ID, m.Status, meeting.ErrInvalidState))
		return
	}
	if s.exporter == nil {
		writeProblem(w, r, http.StatusInternalServerError,
			"meetings/export_unavailable", "Export Unavailable", "no export collaborator configured")
		return
	}

	data, contentType, err := s.exporter.Export(r.Context(), m)
	if err != nil {
		recordExport("error")
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "export.failed").
			Str(log.FieldMeetingID, m.ID).
			Msg("export collaborator failed")
		writeProblem(w, r, http.StatusInternalServerError,
			"meetings/export_failed", "Export Failed", "export collaborator failed")
		return
	}

	recordExport("ok")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", "attachment; filename=\""+exportFilename(m.Title)+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportFilename mirrors the download name the reference client built:
// whitespace collapsed to underscores plus a _notes suffix.
func exportFilename(title string) string {
	name := strings.Join(strings.Fields(title), "_")
	if name == "" {
		name = "meeting"
	}
	return name + "_notes.txt"
}
