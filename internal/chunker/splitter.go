// Package chunker splits unbounded input text into an ordered sequence of
// bounded, speakable chunks that respect sentence boundaries and hard
// character/word limits.
package chunker

import (
	"regexp"
	"strings"
)

// Splitter breaks text into sentences. Implementations never return empty
// or whitespace-only pieces.
type Splitter interface {
	Split(text string) []string
}

// BestAvailable returns the best splitter that can be constructed:
// the linguistic splitter when its patterns compile, the regex splitter
// otherwise. Selection happens once here; the regex path is a degradation,
// not a caller-facing feature choice.
func BestAvailable() Splitter {
	if s, err := NewLinguistic(); err == nil {
		return s
	}
	return RegexSplitter{}
}

// RegexSplitter is the fallback sentence splitter: split after '.', '!'
// or '?' when followed by whitespace (or end of input).
type RegexSplitter struct{}

var sentenceBoundary = regexp.MustCompile(`[.!?]+(\s+|$)`)

// Split implements Splitter.
func (RegexSplitter) Split(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringSubmatchIndex(text, -1) {
		// loc[2] is the start of the trailing whitespace group, i.e. the
		// end of the punctuation run.
		if piece := strings.TrimSpace(text[last:loc[2]]); piece != "" {
			out = append(out, piece)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
