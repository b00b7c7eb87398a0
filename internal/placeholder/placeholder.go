// Package placeholder shields markup inside a translation request from the
// providers. Fenced code, inline code, HTML tags and comments are swapped for [PHn]
// markers before the text leaves the process and swapped back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Hint is appended to LLM prompts whenever a text carries markers.
const Hint = "Keep every [PHn] marker exactly as it appears; do not translate, move or drop it."

// Alternatives are tried in order at each position, so a fenced block wins
// over the inline code and tags inside it. Text that already looks like a
// marker is captured too, so Restore hands it back verbatim.
var protectedRe = regexp.MustCompile(strings.Join([]string{
	"(?s:```.*?```)",
	"`[^`\n]+`",
	`<!--(?s:.*?)-->`,
	`</?[A-Za-z][A-Za-z0-9:-]*(?:\s[^<>]*)?/?>`,
	`\[PH\d+\]`,
}, "|"))

var markerRe = regexp.MustCompile(`\[PH(\d+)\]`)

// Set holds the originals replaced by Protect, indexed by marker number.
type Set []string

// Protect returns text with markup replaced by markers and the originals.
// Markers are numbered in order of appearance.
func Protect(text string) (string, Set) {
	var set Set
	text = protectedRe.ReplaceAllStringFunc(text, func(m string) string {
		set = append(set, m)
		return fmt.Sprintf("[PH%d]", len(set)-1)
	})
	return text, set
}

// Restore puts the originals back. Unknown markers are left untouched.
func (s Set) Restore(text string) string {
	if len(s) == 0 {
		return text
	}
	return markerRe.ReplaceAllStringFunc(text, func(m string) string {
		idx, err := strconv.Atoi(markerRe.FindStringSubmatch(m)[1])
		if err != nil || idx >= len(s) {
			return m
		}
		return s[idx]
	})
}

// Dropped lists the marker numbers present in source but absent from text.
func Dropped(source, text string) []int {
	seen := markers(text)
	var dropped []int
	for _, idx := range Markers(source) {
		if !seen[idx] {
			dropped = append(dropped, idx)
		}
	}
	return dropped
}

// Markers lists the marker numbers in text in order of first appearance.
func Markers(text string) []int {
	var (
		out  []int
		seen = map[int]bool{}
	)
	for _, sub := range markerRe.FindAllStringSubmatch(text, -1) {
		if idx, err := strconv.Atoi(sub[1]); err == nil && !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out
}

func markers(text string) map[int]bool {
	seen := make(map[int]bool)
	for _, idx := range Markers(text) {
		seen[idx] = true
	}
	return seen
}
