package script

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyScript is returned when a script holds no usable sentences.
var ErrEmptyScript = errors.New("script has no sentences")

// Sentence is one segment of a script. Index is its position among the
// script's sentences.
type Sentence struct {
	Index int
	Text  string
}

// Segment splits raw text into sentences at any run of whitespace that
// directly follows '.', '?' or '!'. Segments are trimmed and empty ones
// dropped. It is a heuristic: abbreviations such as "Dr. Smith" and
// quoted punctuation split too.
func Segment(raw string) ([]Sentence, error) {
	var sentences []Sentence
	emit := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		sentences = append(sentences, Sentence{Index: len(sentences), Text: s})
	}

	start := 0
	var prev rune
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if unicode.IsSpace(r) && isTerminal(prev) {
			end := i
			for end < len(raw) {
				r2, s2 := utf8.DecodeRuneInString(raw[end:])
				if !unicode.IsSpace(r2) {
					break
				}
				end += s2
			}
			emit(raw[start:i])
			start = end
			prev = 0
			i = end
			continue
		}
		prev = r
		i += size
	}
	emit(raw[start:])

	if len(sentences) == 0 {
		return nil, ErrEmptyScript
	}
	return sentences, nil
}

// Texts returns the text of each sentence, in order.
func Texts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
