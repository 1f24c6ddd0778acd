// SPDX-License-Identifier: MIT

package meeting

import (
	"path/filepath"
	"strings"
)

// AudioRef identifies the uploaded audio payload by filename and declared
// media type. The payload itself is opaque to the lifecycle.
type AudioRef struct {
	Name      string
	MediaType string
}

// supportedAudioExts is the fixed allow-list of audio encodings accepted at
// submission, by file extension.
var supportedAudioExts = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
	".ogg": true,
}

// Supported reports whether the reference resolves to an accepted audio
// encoding, by extension or by a declared "audio/" media type.
func (r AudioRef) Supported() bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.MediaType)), "audio/") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(r.Name))
	return supportedAudioExts[ext]
}

// validateSubmission checks the caller-provided submit input.
func validateSubmission(title string, lang Language, audio AudioRef) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !lang.Valid() {
		return &ValidationError{Field: "primary_language", Reason: "unknown language"}
	}
	if !audio.Supported() {
		return &ValidationError{Field: "audio_file", Reason: "unsupported audio encoding"}
	}
	return nil
}
