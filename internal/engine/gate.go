package engine

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// Gate wraps an engine with a weighted semaphore so a backend that
// cannot tolerate concurrent invocation (a single loaded model, one GPU
// context) is never entered by more callers than it can serve. Weight 1
// reproduces strict serialization.
type Gate struct {
	inner Engine
	sem   *semaphore.Weighted
}

// NewGate wraps inner with a concurrency limit. Limits below 1 are
// treated as 1.
func NewGate(inner Engine, concurrency int64) *Gate {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Gate{inner: inner, sem: semaphore.NewWeighted(concurrency)}
}

// Synthesize implements Engine. Acquisition respects ctx, so request
// cancellation propagates to callers queued on the engine.
func (g *Gate) Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)
	return g.inner.Synthesize(ctx, text, voice)
}

// Available implements Engine.
func (g *Gate) Available() bool { return g.inner.Available() }

// Close implements Engine.
func (g *Gate) Close() error { return g.inner.Close() }
