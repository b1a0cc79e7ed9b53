package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Strategy selects how per-chunk segments are reassembled into one buffer.
type Strategy string

const (
	// StrategyDirect concatenates normalized segments with inter-chunk
	// silence. The default.
	StrategyDirect Strategy = "direct"
	// StrategyCrossfade is StrategyDirect plus linear edge fades on each
	// segment to avoid clicks at the joins.
	StrategyCrossfade Strategy = "crossfade"
	// StrategyContainer round-trips every segment through a 16-bit WAV
	// container before joining. Legacy path kept for bit-compatibility
	// with external tools; lossy relative to the other two.
	StrategyContainer Strategy = "container"
)

// ParseStrategy maps a strategy name to a Strategy. The wire names
// simple, advanced and pydub are accepted for compatibility with
// existing clients of the service.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "direct", "":
		return StrategyDirect, nil
	case "advanced", "crossfade":
		return StrategyCrossfade, nil
	case "pydub", "container":
		return StrategyContainer, nil
	}
	return "", fmt.Errorf("unknown combine method %q", s)
}

// AssemblyConfig controls segment assembly.
type AssemblyConfig struct {
	// PauseMS is the silence inserted between consecutive segments,
	// in milliseconds. Never before the first or after the last.
	PauseMS int
	// FadeMS is the edge fade duration per segment for the crossfade
	// strategy. 0 disables fading.
	FadeMS int
	// SegmentPeak is the per-segment normalization target before joining.
	SegmentPeak float64
	// FinalPeak is the normalization target of the assembled buffer.
	FinalPeak float64
	// Strategy selects the assembler.
	Strategy Strategy
}

// DefaultAssemblyConfig returns the assembly defaults. The two-pass
// normalization targets (0.85 per segment, 0.95 final) are kept exactly
// as the service has always produced them.
func DefaultAssemblyConfig() AssemblyConfig {
	return AssemblyConfig{
		PauseMS:     150,
		FadeMS:      10,
		SegmentPeak: 0.85,
		FinalPeak:   0.95,
		Strategy:    StrategyDirect,
	}
}

// Validate checks the assembly configuration.
func (c AssemblyConfig) Validate() error {
	if c.PauseMS < 0 {
		return fmt.Errorf("pause_ms must not be negative, got %d", c.PauseMS)
	}
	if c.FadeMS < 0 {
		return fmt.Errorf("fade_ms must not be negative, got %d", c.FadeMS)
	}
	if c.SegmentPeak <= 0 || c.SegmentPeak > 1 {
		return fmt.Errorf("segment_peak must be in (0, 1], got %f", c.SegmentPeak)
	}
	if c.FinalPeak <= 0 || c.FinalPeak > 1 {
		return fmt.Errorf("final_peak must be in (0, 1], got %f", c.FinalPeak)
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	return nil
}

// ErrNoSegments is returned when assembly is invoked with no input. If
// chunking succeeded this is unreachable.
var ErrNoSegments = errors.New("no audio segments to assemble")

// Assembler reassembles an ordered sequence of segments into one buffer.
type Assembler interface {
	Assemble(segments []*Buffer, cfg AssemblyConfig) (*Buffer, error)
}

// ForStrategy returns the assembler implementing the given strategy.
func ForStrategy(s Strategy) (Assembler, error) {
	switch s {
	case StrategyDirect:
		return DirectAssembler{}, nil
	case StrategyCrossfade:
		return CrossfadeAssembler{}, nil
	case StrategyContainer:
		return ContainerAssembler{}, nil
	}
	return nil, fmt.Errorf("unknown assembly strategy %q", s)
}

// DirectAssembler normalizes each segment, joins them with pause silence,
// and normalizes the result.
type DirectAssembler struct{}

// Assemble implements Assembler.
func (DirectAssembler) Assemble(segments []*Buffer, cfg AssemblyConfig) (*Buffer, error) {
	norm, single, err := normalizeSegments(segments, cfg)
	if err != nil || single != nil {
		return single, err
	}
	return join(norm, cfg), nil
}

// CrossfadeAssembler is DirectAssembler with linear edge fades applied to
// each segment before joining.
type CrossfadeAssembler struct{}

// Assemble implements Assembler.
func (CrossfadeAssembler) Assemble(segments []*Buffer, cfg AssemblyConfig) (*Buffer, error) {
	norm, single, err := normalizeSegments(segments, cfg)
	if err != nil || single != nil {
		return single, err
	}
	for i, seg := range norm {
		norm[i] = fadeEdges(seg, fadeSampleCount(cfg.FadeMS, seg.SampleRate))
	}
	return join(norm, cfg), nil
}

// ContainerAssembler round-trips every normalized segment through a WAV
// file before joining. The 16-bit intermediate quantizes sample values;
// callers wanting lossless assembly use the direct or crossfade path.
type ContainerAssembler struct{}

// Assemble implements Assembler.
func (ContainerAssembler) Assemble(segments []*Buffer, cfg AssemblyConfig) (*Buffer, error) {
	norm, single, err := normalizeSegments(segments, cfg)
	if err != nil || single != nil {
		return single, err
	}
	dir, err := os.MkdirTemp("", "ttsgw-container-*")
	if err != nil {
		return nil, fmt.Errorf("container roundtrip: %w", err)
	}
	defer os.RemoveAll(dir)
	for i, seg := range norm {
		path := filepath.Join(dir, fmt.Sprintf("segment_%d.wav", i))
		if err := WriteWAVFile(seg, path); err != nil {
			return nil, fmt.Errorf("container roundtrip: %w", err)
		}
		decoded, err := ReadWAVFile(path)
		if err != nil {
			return nil, fmt.Errorf("container roundtrip: %w", err)
		}
		norm[i] = decoded
	}
	return join(norm, cfg), nil
}

// normalizeSegments handles the shared front half of every strategy:
// empty input fails, a single segment is returned normalized with no
// pause or fade (identity), otherwise each segment is normalized to the
// segment peak.
func normalizeSegments(segments []*Buffer, cfg AssemblyConfig) (norm []*Buffer, single *Buffer, err error) {
	if len(segments) == 0 {
		return nil, nil, ErrNoSegments
	}
	if len(segments) == 1 {
		return nil, Normalize(segments[0], cfg.SegmentPeak), nil
	}
	norm = make([]*Buffer, len(segments))
	for i, seg := range segments {
		norm[i] = Normalize(seg, cfg.SegmentPeak)
	}
	return norm, nil, nil
}

// join concatenates segments in order with pause silence between
// consecutive segments, then normalizes the concatenation to the final
// peak. Pause buffers are all-zero by construction and are not scaled on
// their own.
func join(segments []*Buffer, cfg AssemblyConfig) *Buffer {
	rate := segments[0].SampleRate
	pause := Silence(time.Duration(cfg.PauseMS)*time.Millisecond, rate)

	total := 0
	for _, seg := range segments {
		total += seg.Len()
	}
	total += pause.Len() * (len(segments) - 1)

	out := make([]float64, 0, total)
	for i, seg := range segments {
		if i > 0 {
			out = append(out, pause.Samples...)
		}
		out = append(out, seg.Samples...)
	}
	return Normalize(&Buffer{Samples: out, SampleRate: rate}, cfg.FinalPeak)
}

// fadeSampleCount converts a fade duration to a sample count.
func fadeSampleCount(fadeMS, rate int) int {
	return int(math.Round(float64(fadeMS) / 1000.0 * float64(rate)))
}

// fadeEdges applies a linear fade-in over the first fadeSamples samples
// and a linear fade-out over the last fadeSamples samples, returning a
// new buffer. Segments shorter than twice the fade window are returned
// unfaded so a fade never spans the whole segment.
func fadeEdges(b *Buffer, fadeSamples int) *Buffer {
	out := b.Clone()
	if fadeSamples <= 0 || out.Len() < 2*fadeSamples {
		return out
	}
	n := out.Len()
	for i := 0; i < fadeSamples; i++ {
		gain := float64(i) / float64(fadeSamples)
		out.Samples[i] *= gain
		out.Samples[n-fadeSamples+i] *= 1 - gain
	}
	return out
}
