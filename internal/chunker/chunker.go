// Package chunker splits long texts into pieces a translation service will
// accept, preferring paragraph, then sentence, then word boundaries, and
// joins the translated pieces back with the original separators.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultContextWords is the Tail length used when none is given.
const DefaultContextWords = 25

// Piece is one chunk and the whitespace that followed it in the source.
type Piece struct {
	Text string
	Sep  string
}

// Split cuts text into pieces of at most maxRunes runes. A non-positive
// maxRunes, or a text that already fits, yields a single piece.
func Split(text string, maxRunes int) []Piece {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	rest := text
	for longer(rest, maxRunes) {
		cut := cutPoint(rest, maxRunes)
		head := strings.TrimRightFunc(rest[:cut], unicode.IsSpace)
		tail := strings.TrimLeftFunc(rest[cut:], unicode.IsSpace)
		sep := rest[len(head) : len(rest)-len(tail)]

		switch {
		case head != "":
			pieces = append(pieces, Piece{Text: head, Sep: sep})
		case len(pieces) > 0:
			pieces[len(pieces)-1].Sep += sep
		}
		rest = tail
	}
	if last := strings.TrimRightFunc(rest, unicode.IsSpace); last != "" {
		pieces = append(pieces, Piece{Text: last, Sep: rest[len(last):]})
	} else if len(pieces) > 0 {
		pieces[len(pieces)-1].Sep += rest
	}
	return pieces
}

// Join concatenates texts, one per piece, with the pieces' separators.
func Join(pieces []Piece, texts []string) string {
	var sb strings.Builder
	for i, p := range pieces {
		if i < len(texts) {
			sb.WriteString(texts[i])
		}
		sb.WriteString(p.Sep)
	}
	return sb.String()
}

// cutPoint returns a byte offset in (0, len(text)] at which to split so that
// the head holds at most maxRunes runes.
func cutPoint(text string, maxRunes int) int {
	limit := byteOffset(text, maxRunes)
	window := text[:limit]

	for _, para := range []string{"\n\n", "\r\n\r\n"} {
		if i := strings.LastIndex(window, para); i > 0 {
			return i
		}
	}
	if i := lastSentenceEnd(window, text[limit:]); i > 0 {
		return i
	}
	if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
		return i
	}
	return limit
}

// lastSentenceEnd finds the end of the last sentence in window that is
// followed by whitespace, looking into rest when the window ends on it.
func lastSentenceEnd(window, rest string) int {
	for i := len(window) - 1; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
		default:
			continue
		}
		after := window[i+1:]
		if after == "" {
			after = rest
		}
		if next, _ := utf8.DecodeRuneInString(after); unicode.IsSpace(next) {
			return i + 1
		}
	}
	return -1
}

// longer reports whether text has more than n runes without counting past n.
func longer(text string, n int) bool {
	return byteOffset(text, n) < len(text)
}

func byteOffset(text string, runes int) int {
	for i := range text {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(text)
}

// Tail returns the last words of text, joined by single spaces, for use as
// context when translating the next piece.
func Tail(text string, words int) string {
	if words <= 0 {
		words = DefaultContextWords
	}
	fields := strings.Fields(text)
	if len(fields) > words {
		fields = fields[len(fields)-words:]
	}
	return strings.Join(fields, " ")
}
