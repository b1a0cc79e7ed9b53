// Package encoder serializes an assembled sample buffer into a
// requested container format. WAV is written natively; compressed
// formats are transcoded from a temporary WAV through ffmpeg, mirroring
// how every other tool in the deployment consumes audio.
package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// Format is an output container format.
type Format string

// Supported output formats.
const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatMP4 Format = "mp4"
)

// DefaultBitrate is the bitrate hint for compressed formats.
const DefaultBitrate = "128k"

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wav":
		return FormatWAV, nil
	case "mp3", "":
		return FormatMP3, nil
	case "mp4", "aac", "m4a":
		return FormatMP4, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatMP4:
		return "audio/mp4"
	}
	return "application/octet-stream"
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string { return string(f) }

// EncodingError wraps a failure in the final container/codec step.
type EncodingError struct {
	Format Format
	Err    error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding to %s failed: %v", e.Format, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodingError) Unwrap() error { return e.Err }

// Encoder turns buffers into container byte streams.
type Encoder struct {
	bitrate string
	logger  *log.Logger
}

// New returns an encoder. An empty bitrate means DefaultBitrate.
func New(bitrate string, logger *log.Logger) *Encoder {
	if bitrate == "" {
		bitrate = DefaultBitrate
	}
	return &Encoder{bitrate: bitrate, logger: logger.WithPrefix("encoder")}
}

// Encode serializes buf into the requested format, returning the encoded
// bytes along with the mime type and file extension for the response.
func (e *Encoder) Encode(buf *audio.Buffer, format Format) ([]byte, string, string, error) {
	dir, err := os.MkdirTemp("", "ttsgw-encode-*")
	if err != nil {
		return nil, "", "", &EncodingError{Format: format, Err: err}
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio.wav")
	if err := audio.WriteWAVFile(buf, wavPath); err != nil {
		return nil, "", "", &EncodingError{Format: format, Err: err}
	}

	outPath := wavPath
	if format != FormatWAV {
		outPath = filepath.Join(dir, "audio."+format.Ext())
		if err := e.transcode(wavPath, outPath, format); err != nil {
			return nil, "", "", &EncodingError{Format: format, Err: err}
		}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, "", "", &EncodingError{Format: format, Err: err}
	}
	e.logger.Debug("encoded audio",
		"format", format,
		"duration", buf.Duration(),
		"size", humanize.Bytes(uint64(len(data))))
	return data, format.MIME(), format.Ext(), nil
}

func (e *Encoder) transcode(in, out string, format Format) error {
	args := ffmpeg.KwArgs{"b:a": e.bitrate}
	if format == FormatMP4 {
		args["c:a"] = "aac"
	}
	return ffmpeg.Input(in).
		Output(out, args).
		OverWriteOutput().
		Silent(true).
		Run()
}
