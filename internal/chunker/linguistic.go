package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// LinguisticSplitter is the primary sentence splitter. It scans for
// terminal punctuation and filters out boundaries that fall inside
// abbreviations, decimal numbers, ellipses and URLs, which the plain
// regex rule would split on.
type LinguisticSplitter struct {
	abbreviations map[string]bool
	urlPattern    *regexp.Regexp
}

// NewLinguistic builds the linguistic splitter. An error means the
// splitter is unavailable and callers should degrade to RegexSplitter.
func NewLinguistic() (*LinguisticSplitter, error) {
	urlPattern, err := regexp.Compile(`[a-z][a-z0-9+.-]*://\S*$`)
	if err != nil {
		return nil, err
	}
	return &LinguisticSplitter{
		abbreviations: abbreviationMap(),
		urlPattern:    urlPattern,
	}, nil
}

// Split implements Splitter.
func (l *LinguisticSplitter) Split(text string) []string {
	runes := []rune(text)
	var out []string
	last := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Collect the whole punctuation run ("?!", "...").
		end := i + 1
		for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
			end++
		}
		// Closing quotes and brackets belong to the sentence.
		for end < len(runes) && isClosing(runes[end]) {
			end++
		}
		if !l.isBoundary(runes, i, end) {
			i = end - 1
			continue
		}
		if piece := strings.TrimSpace(string(runes[last:end])); piece != "" {
			out = append(out, piece)
		}
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		last = end
		i = end - 1
	}
	if rest := strings.TrimSpace(string(runes[last:])); rest != "" {
		out = append(out, rest)
	}
	return out
}

// isBoundary reports whether the punctuation at pos (run ending at end)
// terminates a sentence.
func (l *LinguisticSplitter) isBoundary(runes []rune, pos, end int) bool {
	if end >= len(runes) {
		return true
	}
	// Must be followed by whitespace; mid-token periods (version numbers,
	// hostnames) never split.
	if !unicode.IsSpace(runes[end]) {
		return false
	}

	if runes[pos] == '.' {
		// Ellipses continue the sentence when the next word is lowercase.
		run := pos
		for run < len(runes) && runes[run] == '.' {
			run++
		}
		if run-pos >= 2 {
			j := run
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && unicode.IsLower(runes[j]) {
				return false
			}
		}

		word := wordBefore(runes, pos)
		// Known abbreviations keep their period.
		trimmed := strings.TrimSuffix(word, ".")
		if l.abbreviations[trimmed] || l.abbreviations[word] {
			return false
		}
		// Multi-part abbreviations like "u.s." or "ph.d".
		if strings.Count(trimmed, ".") >= 1 {
			return false
		}
		// Decimal numbers: "3." followed by a digit is not a boundary.
		if pos > 0 && unicode.IsDigit(runes[pos-1]) && pos+1 < len(runes) && unicode.IsDigit(runes[pos+1]) {
			return false
		}
		// URLs run to the next whitespace; a period inside one is not a
		// boundary.
		if l.urlPattern.MatchString(word) {
			return false
		}
	}
	return true
}

// wordBefore returns the whitespace-delimited token ending at pos,
// including the punctuation itself, lowercased.
func wordBefore(runes []rune, pos int) string {
	start := pos
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return strings.ToLower(string(runes[start : pos+1]))
}

func isClosing(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']'
}

// abbreviationMap lists common abbreviations whose trailing period does
// not end a sentence. Entries are stored lowercased both with and without
// the period.
func abbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
		"inc", "ltd", "co", "corp", "llc",
		"i.e", "e.g", "etc", "vs", "cf", "al", "approx",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"ave", "blvd", "rd", "ln", "ct", "dept",
		"ft", "lbs", "oz", "kg", "km", "cm", "mm", "mi", "yd",
		"hr", "hrs", "min", "mins", "sec", "secs",
		"no", "nos", "vol", "vols", "pg", "pp", "ed", "eds",
	}
	m := make(map[string]bool, len(abbrevs)*2)
	for _, a := range abbrevs {
		m[a] = true
		if !strings.Contains(a, ".") {
			m[a+"."] = true
		}
	}
	return m
}
