package whisper

import (
	"strings"
	"time"
)

// SampleRate is the only rate the engine accepts.
const SampleRate = 16000

// Segment is one timed piece of a transcription, relative to the samples passed in.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type Result struct {
	Language string
	Segments []Segment
}

// Text joins the segment texts with single spaces.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Engine is a small interface for whisper transcription.
// Implementations may be a no-op (stub) or backed by whisper.cpp (build tag: whisper_cpp).
type Engine interface {
	// Transcribe runs a full-context transcription over 16kHz PCM32F samples.
	Transcribe(samples []float32) (Result, error)
	// SetLanguage configures the language for transcription. Use "auto" for auto-detection.
	SetLanguage(lang string)
	Close() error
}
