package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestChunkRespectsCharLimit(t *testing.T) {
	c := New(nil)
	chunks, err := c.Chunk("Hi. Hi.", 3, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	want := []string{"Hi.", "Hi."}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Text, w)
		}
	}
}

func TestChunkGreedyPacking(t *testing.T) {
	c := New(nil)
	text := "One two. Three four. Five six."
	chunks, err := c.Chunk(text, 20, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	// "One two. Three four." is exactly 20 chars; "Five six." starts a new
	// chunk.
	want := []string{"One two. Three four.", "Five six."}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %+v, want %d", len(chunks), chunks, len(want))
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Text, w)
		}
	}
}

func TestChunkWordLimit(t *testing.T) {
	c := New(nil)
	chunks, err := c.Chunk("a b c. d e f.", 1000, 3)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks %+v, want 2", len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Words > 3 {
			t.Errorf("chunk %d has %d words, limit 3", i, ch.Words)
		}
	}
}

func TestChunkLongSentenceFallsBackToWords(t *testing.T) {
	c := New(nil)
	text := "alpha beta gamma delta epsilon zeta eta theta"
	chunks, err := c.Chunk(text, 20, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected word-level split, got %+v", chunks)
	}
	for i, ch := range chunks {
		if ch.Chars > 20 {
			t.Errorf("chunk %d is %d chars, limit 20: %q", i, ch.Chars, ch.Text)
		}
	}
	joined := strings.Join(strings.Fields(text), " ")
	var parts []string
	for _, ch := range chunks {
		parts = append(parts, ch.Text)
	}
	if got := strings.Join(parts, " "); got != joined {
		t.Errorf("coverage broken:\ngot  %q\nwant %q", got, joined)
	}
}

func TestChunkAtomicTokenKeptWhole(t *testing.T) {
	c := New(nil)
	long := strings.Repeat("x", 500)
	chunks, err := c.Chunk("short words. "+long+" more words.", 50, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	found := false
	for _, ch := range chunks {
		if ch.Text == long {
			found = true
		}
		if ch.Chars > 50 && ch.Text != long {
			t.Errorf("oversized chunk that is not the atomic token: %q", ch.Text)
		}
	}
	if !found {
		t.Fatalf("atomic token was split: %+v", chunks)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c := New(nil)
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := c.Chunk(text, 400, 50); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Chunk(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
}

func TestChunkPreservesOrderAndText(t *testing.T) {
	c := New(nil)
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks, err := c.Chunk(text, 25, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	var parts []string
	for _, ch := range chunks {
		parts = append(parts, ch.Text)
	}
	if got := strings.Join(parts, " "); got != text {
		t.Errorf("concatenation mismatch:\ngot  %q\nwant %q", got, text)
	}
}

func TestChunkSingleShortText(t *testing.T) {
	c := New(nil)
	chunks, err := c.Chunk("Hello world.", 400, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "Hello world." {
		t.Errorf("got %+v, want one chunk %q", chunks, "Hello world.")
	}
}

func TestChunkMetadata(t *testing.T) {
	c := New(nil)
	chunks, err := c.Chunk("one two three", 400, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if got := chunks[0]; got.Chars != 13 || got.Words != 3 {
		t.Errorf("metadata = chars %d words %d, want 13 and 3", got.Chars, got.Words)
	}
}
