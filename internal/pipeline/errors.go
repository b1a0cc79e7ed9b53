package pipeline

import (
	"errors"
	"fmt"

	"github.com/CarbonComputed/TTSAPIGateway/internal/chunker"
)

// Validation errors. All are detectable before any synthesis work starts
// and map to client-error responses.
var (
	ErrEmptyText       = errors.New("text must be a non-empty string")
	ErrInvalidVoice    = errors.New("invalid voice")
	ErrInvalidLimits   = errors.New("max_chars and max_words must be positive")
	ErrInvalidFormat   = errors.New("unknown output format")
	ErrInvalidStrategy = errors.New("unknown combine method")
)

// SynthesisError reports that the engine failed on a specific chunk.
// The request is aborted on the first one; there are no retries and no
// partial-audio responses.
type SynthesisError struct {
	ChunkIndex int
	Err        error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed on chunk %d: %v", e.ChunkIndex, e.Err)
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error { return e.Err }

// IsClientError reports whether err is the caller's fault: request
// validation failures and chunking failures on unusable input. Anything
// else is a server-side failure.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrInvalidVoice),
		errors.Is(err, ErrInvalidLimits),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidStrategy),
		errors.Is(err, chunker.ErrEmptyInput),
		errors.Is(err, chunker.ErrNoChunks):
		return true
	}
	return false
}
