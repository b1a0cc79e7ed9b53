// Package engine adapts external speech synthesis backends to the
// pipeline. The engine is modeled as a single shared, stateful resource:
// it is created once at startup, injected explicitly, and guarded by a
// Gate sized to its real concurrency capacity.
package engine

import (
	"context"
	"errors"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// ErrUnavailable is returned when the synthesis backend is not loaded or
// not reachable. Health reporting and request handling both key off it.
var ErrUnavailable = errors.New("synthesis engine is not available")

// DefaultVoice is used when a request does not name a voice.
const DefaultVoice = "expr-voice-2-f"

// voices is the fixed voice set. It is an external contract: the IDs and
// their order must not change silently.
var voices = []string{
	"expr-voice-2-m", "expr-voice-2-f",
	"expr-voice-3-m", "expr-voice-3-f",
	"expr-voice-4-m", "expr-voice-4-f",
	"expr-voice-5-m", "expr-voice-5-f",
}

// Voices returns the fixed voice set in contract order.
func Voices() []string {
	out := make([]string, len(voices))
	copy(out, voices)
	return out
}

// ValidVoice reports whether id is a member of the fixed voice set.
func ValidVoice(id string) bool {
	for _, v := range voices {
		if v == id {
			return true
		}
	}
	return false
}

// Engine converts one chunk of text into a sample buffer at the fixed
// sample rate.
type Engine interface {
	// Synthesize renders text with the given voice. It blocks until the
	// backend returns a buffer or ctx is done.
	Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error)

	// Available reports whether the backend is ready for use.
	Available() bool

	// Close releases the backend.
	Close() error
}
