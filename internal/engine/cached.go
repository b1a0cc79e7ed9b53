package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
	"github.com/CarbonComputed/TTSAPIGateway/internal/cache"
)

// Cached wraps an engine with a segment cache keyed on (voice, text).
// Cached PCM is stored as float32, so a hit reproduces the engine output
// up to float32 precision and never goes through a 16-bit intermediate.
type Cached struct {
	inner  Engine
	cache  *cache.Memory
	logger *log.Logger
}

// NewCached wraps inner with the given cache.
func NewCached(inner Engine, c *cache.Memory, logger *log.Logger) *Cached {
	return &Cached{inner: inner, cache: c, logger: logger.WithPrefix("engine/cache")}
}

// Synthesize implements Engine.
func (c *Cached) Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	key := segmentKey(voice, text)
	if raw, ok := c.cache.Get(key); ok {
		c.logger.Debug("segment cache hit", "voice", voice, "size", humanize.Bytes(uint64(len(raw))))
		return decodePCM(raw), nil
	}

	buf, err := c.inner.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, encodePCM(buf)); err != nil && err != cache.ErrTooLarge {
		c.logger.Warn("segment cache store failed", "err", err)
	}
	return buf, nil
}

// Available implements Engine.
func (c *Cached) Available() bool { return c.inner.Available() }

// Close implements Engine.
func (c *Cached) Close() error { return c.inner.Close() }

func segmentKey(voice, text string) string {
	h := sha256.New()
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func encodePCM(b *audio.Buffer) []byte {
	out := make([]byte, len(b.Samples)*4)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(s)))
	}
	return out
}

func decodePCM(raw []byte) *audio.Buffer {
	samples := make([]float64, len(raw)/4)
	for i := range samples {
		samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return audio.NewBuffer(samples, audio.SampleRate)
}
