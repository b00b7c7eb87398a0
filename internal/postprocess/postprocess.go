// Package postprocess strips the wrapping that LLM providers tend to put
// around a translation before it is handed back to an HTTP client.
package postprocess

import (
	"regexp"
	"strings"
)

var (
	// closed reasoning blocks; RE2 has no backreferences so each tag is listed
	reasoningRe = regexp.MustCompile(`(?is)<(?:think|thinking|reasoning|reflection)>.*?</(?:think|thinking|reasoning|reflection)>`)

	// a reasoning tag that was opened but never closed swallows the rest
	danglingRe = regexp.MustCompile(`(?is)<(?:think|thinking|reasoning|reflection)>.*$`)

	preambleRe = regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.!]?\s+)?(?:here(?:'s| is)\s+)?(?:the\s+)?(?:translated text|(?:translated |refined |polished )?translation|text)\s*:`)
)

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// Clean removes reasoning blocks, a leading "Here is the translation:"
// preamble and one pair of enclosing quotes.
func Clean(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = danglingRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if loc := preambleRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}

	return strings.TrimSpace(unquote(text))
}

func unquote(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	closing, ok := quotePairs[runes[0]]
	if !ok || runes[len(runes)-1] != closing {
		return text
	}
	return string(runes[1 : len(runes)-1])
}
