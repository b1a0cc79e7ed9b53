package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// Mock is a deterministic in-process engine for tests and local
// development. Output is a fixed-frequency tone sized from the word
// count, so assembly arithmetic is checkable without a real model.
type Mock struct {
	mu sync.Mutex

	// SamplesPerWord controls output length; defaults to 0.3s of audio
	// per word.
	SamplesPerWord int
	// Amplitude of the generated tone.
	Amplitude float64
	// Delay simulates backend latency.
	Delay time.Duration

	failErr     error
	unavailable bool
	calls       int
}

// NewMock returns a mock engine producing a 220 Hz tone.
func NewMock() *Mock {
	return &Mock{
		SamplesPerWord: audio.SampleRate * 3 / 10,
		Amplitude:      0.5,
	}
}

// Fail makes every subsequent Synthesize call return err. Pass nil to
// clear.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// SetAvailable toggles the engine's reported availability.
func (m *Mock) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !ok
}

// Calls returns how many times Synthesize has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Synthesize implements Engine.
func (m *Mock) Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	m.mu.Lock()
	m.calls++
	failErr := m.failErr
	unavailable := m.unavailable
	spw := m.SamplesPerWord
	amp := m.Amplitude
	delay := m.Delay
	m.mu.Unlock()

	if unavailable {
		return nil, ErrUnavailable
	}
	if failErr != nil {
		return nil, failErr
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	n := words * spw
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*220*float64(i)/float64(audio.SampleRate))
	}
	return audio.NewBuffer(samples, audio.SampleRate), nil
}

// Available implements Engine.
func (m *Mock) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unavailable
}

// Close implements Engine.
func (m *Mock) Close() error { return nil }
