// Package detector guesses the language of a text for requests that arrive
// with source_lang "auto".
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// DefaultMinConfidence is the share of the confidence mass the leading
// language needs before a guess is reported.
const DefaultMinConfidence = 0.5

type Detector struct {
	detector      lingua.LanguageDetector
	minConfidence float64
}

// New builds a detector limited to the given ISO 639-1 codes. Unknown codes
// are ignored; fewer than two known codes means all languages. A restricted
// detector maps every other language onto one of its own, so restrict only
// when the input languages are known. Building is expensive, share the
// instance.
func New(codes ...string) *Detector {
	builder := lingua.NewLanguageDetectorBuilder()

	langs := languagesFor(codes)
	if len(langs) < 2 {
		return &Detector{detector: builder.FromAllLanguages().Build()}
	}
	return &Detector{detector: builder.FromLanguages(langs...).Build()}
}

func languagesFor(codes []string) []lingua.Language {
	var langs []lingua.Language
	for _, code := range codes {
		for _, l := range lingua.AllLanguages() {
			if strings.EqualFold(l.IsoCode639_1().String(), strings.TrimSpace(code)) {
				langs = append(langs, l)
				break
			}
		}
	}
	return langs
}

// WithMinConfidence returns a copy that reports no language unless the
// leading candidate's confidence reaches v. Zero keeps lingua's own rule.
func (d *Detector) WithMinConfidence(v float64) *Detector {
	c := *d
	c.minConfidence = v
	return &c
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	if d.minConfidence <= 0 {
		return d.detector.DetectLanguageOf(text)
	}

	values := d.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 || values[0].Value() < d.minConfidence {
		return lingua.Unknown, false
	}
	if len(values) > 1 && values[0].Value() == values[1].Value() {
		return lingua.Unknown, false
	}
	return values[0].Language(), true
}

// DetectISO returns the lower-case ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
