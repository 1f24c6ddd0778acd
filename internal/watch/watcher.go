// SPDX-License-Identifier: MIT

// Package watch submits audio files dropped into a local directory as new
// meetings, as an alternative intake next to the HTTP upload.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
)

// Submitter is the lifecycle operation the watcher drives.
type Submitter interface {
	Submit(ctx context.Context, title string, lang meeting.Language, audio meeting.AudioRef) (*meeting.Meeting, error)
}

// Watcher monitors one directory for new audio files.
type Watcher struct {
	dir       string
	lang      meeting.Language
	submitter Submitter
	fsw       *fsnotify.Watcher
}

// New creates a Watcher over dir. Every created file with a supported audio
// extension becomes a meeting in processing state, titled after the file.
func New(dir string, lang meeting.Language, submitter Submitter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:       dir,
		lang:      lang,
		submitter: submitter,
		fsw:       fsw,
	}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	logger := log.WithComponent("watch")
	logger.Info().
		Str(log.FieldEvent, "watch.start").
		Str(log.FieldPath, w.dir).
		Msg("watching for dropped audio files")

	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			logger.Info().
				Str(log.FieldEvent, "watch.stop").
				Msg("watch folder intake stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := w.intake(ctx, event.Name); err != nil {
				logger.Warn().
					Err(err).
					Str(log.FieldEvent, "watch.intake_failed").
					Str(log.FieldPath, event.Name).
					Msg("dropped file was not submitted")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error().
				Err(err).
				Str(log.FieldEvent, "watch.error").
				Msg("filesystem watcher error")
		}
	}
}

// intake submits a single dropped file, skipping unsupported extensions.
func (w *Watcher) intake(ctx context.Context, path string) error {
	audio := meeting.AudioRef{Name: filepath.Base(path)}
	if !audio.Supported() {
		logger := log.WithComponent("watch")
		logger.Debug().
			Str(log.FieldPath, path).
			Msg("ignoring non-audio file")
		return nil
	}

	m, err := w.submitter.Submit(ctx, TitleFromFilename(audio.Name), w.lang, audio)
	if err != nil {
		return err
	}

	logger := log.WithComponent("watch")
	logger.Info().
		Str(log.FieldEvent, "watch.submitted").
		Str(log.FieldMeetingID, m.ID).
		Str(log.FieldPath, path).
		Msg("dropped audio file submitted")
	return nil
}

// TitleFromFilename derives a readable meeting title from a dropped file's
// name: extension stripped, separators mapped to spaces.
func TitleFromFilename(name string) string {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	title = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(title)
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return name
	}
	return title
}
