// Package validator rejects provider output written in the wrong language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/polyglot/internal/detector"
)

// Detection on very short strings is noise; they always pass.
const minRunes = 20

var ErrEmpty = errors.New("translation is empty")

// MismatchError reports output detected in a language other than the target.
type MismatchError struct {
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s but detected %s", e.Want, e.Got)
}

type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// Check returns nil when text plausibly is in targetLang. Region and script
// subtags on the target are ignored ("pt-BR" checks for "pt").
func (v *Validator) Check(text, targetLang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	want := baseLanguage(targetLang)
	if want == "" || len([]rune(text)) < minRunes {
		return nil
	}

	got, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if got != want {
		return &MismatchError{Want: want, Got: got}
	}
	return nil
}

func baseLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}
