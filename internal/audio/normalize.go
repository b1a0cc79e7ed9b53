package audio

// Normalize scales every sample so the peak absolute value equals
// targetPeak. Silent and empty buffers are returned unchanged (as copies;
// every stage in the pipeline returns a buffer it owns). Applying
// Normalize twice with the same target is a no-op up to floating-point
// rounding.
func Normalize(b *Buffer, targetPeak float64) *Buffer {
	peak := b.Peak()
	if peak == 0 {
		return b.Clone()
	}
	scale := targetPeak / peak
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s * scale
	}
	return &Buffer{Samples: out, SampleRate: b.SampleRate}
}
