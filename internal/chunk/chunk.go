// Package chunk splits long text into pieces no longer than a synthesis
// request allows, preferring sentence and clause boundaries
package chunk

import (
	"errors"
	"strings"
	"unicode"
)

// DefaultMaxChars keeps each request well under ElevenLabs' 5000 character
// limit
const DefaultMaxChars = 2500

// ErrInvalidSize is returned when the maximum chunk length is not positive
var ErrInvalidSize = errors.New("chunk size must be positive")

// Chunk is one contiguous piece of the source text
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Length int    `json:"length"`
	// Leading is the whitespace before the first chunk. Empty on every other chunk
	Leading string `json:"-"`
	// Trailing is the whitespace that followed Text in the source
	Trailing string `json:"-"`
	Forced   bool   `json:"forced,omitempty"`
}

// Overflow reports a forced split: a run of text with no whitespace that was
// longer than the limit and had to be cut mid-word
type Overflow struct {
	Index       int `json:"index"`
	TokenLength int `json:"token_length"`
	Max         int `json:"max"`
}

// Result is the outcome of Split
type Result struct {
	Chunks    []Chunk
	Overflows []Overflow
}

// Texts returns the text of every chunk in order
func (r Result) Texts() []string {
	texts := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		texts[i] = c.Text
	}
	return texts
}

// Split cuts text into chunks of at most max runes. Text made only of
// whitespace produces no chunks
func Split(text string, max int) (Result, error) {
	if max <= 0 {
		return Result{}, ErrInvalidSize
	}

	runes := []rune(text)
	n := len(runes)

	contentEnd := n
	for contentEnd > 0 && unicode.IsSpace(runes[contentEnd-1]) {
		contentEnd--
	}

	pos := skipSpace(runes, 0)
	leading := string(runes[:pos])

	var res Result
	for pos < contentEnd {
		start := pos
		cut, forced := contentEnd, false
		if contentEnd-start > max {
			cut, forced = findCut(runes, start, max)
		}

		end := cut
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		next := skipSpace(runes, cut)

		c := Chunk{
			Index:    len(res.Chunks),
			Text:     string(runes[start:end]),
			Length:   end - start,
			Trailing: string(runes[end:next]),
			Forced:   forced,
		}
		if c.Index == 0 {
			c.Leading = leading
		}
		if forced {
			res.Overflows = append(res.Overflows, Overflow{
				Index:       c.Index,
				TokenLength: skipWord(runes, start) - start,
				Max:         max,
			})
		}
		res.Chunks = append(res.Chunks, c)
		pos = next
	}

	return res, nil
}

// findCut returns the end of the next chunk starting at start, which must be
// a non-space rune. Content runes[start:cut] never exceeds max
func findCut(runes []rune, start, max int) (int, bool) {
	limit := start + max
	sentence, clause, word := -1, -1, -1

	for c := start + 1; c <= limit && c < len(runes); c++ {
		if !unicode.IsSpace(runes[c]) {
			continue
		}
		word = c
		switch runes[c-1] {
		case '.', '!', '?':
			sentence = c
		case ',', ';':
			clause = c
		}
	}

	switch {
	case sentence > 0:
		return sentence, false
	case clause > 0:
		return clause, false
	case word > 0:
		return word, false
	default:
		return limit, true
	}
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func skipWord(runes []rune, i int) int {
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

// Join reconstructs the text the chunks were split from
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Leading)
		b.WriteString(c.Text)
		b.WriteString(c.Trailing)
	}
	return b.String()
}

// JoinWith joins the chunk texts with sep, ignoring the original whitespace
func JoinWith(chunks []Chunk, sep string) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, sep)
}
