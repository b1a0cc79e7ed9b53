package chunker

import (
	"errors"
	"strings"
)

// Chunking errors.
var (
	// ErrEmptyInput is returned when the input text is empty after
	// trimming.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrNoChunks is returned when chunking produced zero usable chunks
	// from non-blank input.
	ErrNoChunks = errors.New("chunking produced no usable chunks")
)

// TextChunk is one bounded, immutable piece of input text. Chars is at
// most the configured limit unless the chunk is a single unsplittable
// token longer than the limit, which is kept whole because truncating it
// would corrupt meaning.
type TextChunk struct {
	Text  string
	Chars int
	Words int
}

func newChunk(text string) TextChunk {
	return TextChunk{
		Text:  text,
		Chars: len(text),
		Words: len(strings.Fields(text)),
	}
}

// Chunker packs sentences into chunks under character and word limits.
type Chunker struct {
	splitter Splitter
}

// New returns a chunker using the given splitter, or the best available
// splitter when nil.
func New(s Splitter) *Chunker {
	if s == nil {
		s = BestAvailable()
	}
	return &Chunker{splitter: s}
}

// Chunk splits text into ordered chunks, each within maxChars and
// maxWords except for single atomic tokens. Packing is greedy and
// first-fit: a chunk is closed only when appending the next item would
// cross a limit. Single forward pass, no reordering.
func (c *Chunker) Chunk(text string, maxChars, maxWords int) ([]TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	var chunks []TextChunk
	var buf []string
	bufChars, bufWords := 0, 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		if joined := strings.TrimSpace(strings.Join(buf, " ")); joined != "" {
			chunks = append(chunks, newChunk(joined))
		}
		buf = buf[:0]
		bufChars, bufWords = 0, 0
	}
	// fits reports whether appending an item keeps the buffer within
	// limits. The check is prospective: length after the append,
	// including the joining space.
	fits := func(chars, words int) bool {
		prospective := bufChars + chars
		if len(buf) > 0 {
			prospective++
		}
		return prospective <= maxChars && bufWords+words <= maxWords
	}
	appendItem := func(s string, words int) {
		if len(buf) > 0 {
			bufChars++
		}
		buf = append(buf, s)
		bufChars += len(s)
		bufWords += words
	}

	for _, sentence := range c.splitter.Split(text) {
		words := strings.Fields(sentence)
		if !fits(len(sentence), len(words)) {
			flush()
		}
		if fits(len(sentence), len(words)) {
			appendItem(sentence, len(words))
			continue
		}
		// The sentence alone exceeds the limits: pack word by word.
		for _, word := range words {
			if !fits(len(word), 1) {
				flush()
			}
			if len(word) > maxChars {
				// Atomic token: longer than the limit on its own,
				// emitted whole rather than split mid-word.
				chunks = append(chunks, newChunk(word))
				continue
			}
			appendItem(word, 1)
		}
		flush()
	}
	flush()

	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	return chunks, nil
}
