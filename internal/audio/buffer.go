// Package audio provides the sample buffers, peak normalization, and
// segment assembly used to turn per-chunk synthesis output into one
// coherent waveform.
package audio

import (
	"math"
	"time"
)

// SampleRate is the fixed rate of the synthesis engine. Every buffer in
// the pipeline is at this rate unless the output encoder re-encodes it.
const SampleRate = 24000

// Buffer holds monophonic floating-point samples at a given sample rate.
// Samples are not required to be within [-1, 1] on input; after
// normalization they must be.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// NewBuffer wraps samples in a Buffer. A rate of 0 means SampleRate.
func NewBuffer(samples []float64, rate int) *Buffer {
	if rate <= 0 {
		rate = SampleRate
	}
	return &Buffer{Samples: samples, SampleRate: rate}
}

// Len returns the number of samples.
func (b *Buffer) Len() int { return len(b.Samples) }

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Peak returns the maximum absolute sample value, 0 for an empty buffer.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	samples := make([]float64, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, SampleRate: b.SampleRate}
}

// Silence returns an all-zero buffer of the given duration. The sample
// count is rounded to the nearest whole sample. Silence buffers are exempt
// from normalization; they are exactly zero by construction.
func Silence(d time.Duration, rate int) *Buffer {
	if rate <= 0 {
		rate = SampleRate
	}
	n := int(math.Round(d.Seconds() * float64(rate)))
	if n < 0 {
		n = 0
	}
	return &Buffer{Samples: make([]float64, n), SampleRate: rate}
}
