package engine

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/CarbonComputed/TTSAPIGateway/internal/cache"
)

func newTestCached(t *testing.T, inner Engine) *Cached {
	t.Helper()
	mem, err := cache.NewMemory(1 << 20)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	return NewCached(inner, mem, log.New(io.Discard))
}

func TestCachedHitSkipsEngine(t *testing.T) {
	mock := NewMock()
	c := newTestCached(t, mock)

	first, err := c.Synthesize(context.Background(), "hello there", DefaultVoice)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	second, err := c.Synthesize(context.Background(), "hello there", DefaultVoice)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if got := mock.Calls(); got != 1 {
		t.Errorf("engine calls = %d, want 1 (second request served from cache)", got)
	}
	if first.Len() != second.Len() {
		t.Fatalf("cached length = %d, want %d", second.Len(), first.Len())
	}
	for i := range first.Samples {
		if math.Abs(first.Samples[i]-second.Samples[i]) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v within float32 precision", i, second.Samples[i], first.Samples[i])
		}
	}
}

func TestCachedKeySeparatesVoices(t *testing.T) {
	mock := NewMock()
	c := newTestCached(t, mock)

	if _, err := c.Synthesize(context.Background(), "same text", "expr-voice-2-m"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "same text", "expr-voice-2-f"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got := mock.Calls(); got != 2 {
		t.Errorf("engine calls = %d, want 2 (different voices must not share entries)", got)
	}
}

func TestCachedErrorNotCached(t *testing.T) {
	mock := NewMock()
	c := newTestCached(t, mock)

	mock.Fail(context.DeadlineExceeded)
	if _, err := c.Synthesize(context.Background(), "text", DefaultVoice); err == nil {
		t.Fatalf("expected error")
	}
	mock.Fail(nil)
	if _, err := c.Synthesize(context.Background(), "text", DefaultVoice); err != nil {
		t.Fatalf("Synthesize() error = %v after engine recovered", err)
	}
	if got := mock.Calls(); got != 2 {
		t.Errorf("engine calls = %d, want 2 (failures are not cached)", got)
	}
}

func TestSegmentKeyDistinct(t *testing.T) {
	if segmentKey("a", "bc") == segmentKey("ab", "c") {
		t.Errorf("key collides across the voice/text boundary")
	}
	if segmentKey("v", "x") == segmentKey("v", "y") {
		t.Errorf("key ignores text")
	}
}
