package detector

import (
	"sync"
	"testing"
)

var (
	sharedOnce sync.Once
	shared     *Detector
)

// the full model set takes a while to load, build it once per test binary
func allLanguages() *Detector {
	sharedOnce.Do(func() { shared = New() })
	return shared
}

func TestDetector_Detect(t *testing.T) {
	d := allLanguages()

	tests := []struct {
		name     string
		text     string
		wantLang string
		wantOK   bool
	}{
		{name: "empty text", text: "", wantOK: false},
		{name: "blank text", text: "   \n", wantOK: false},
		{name: "english text", text: "Hello, this is a test in English.", wantLang: "English", wantOK: true},
		{name: "ukrainian text", text: "Привіт, це тест українською мовою.", wantLang: "Ukrainian", wantOK: true},
		{name: "german text", text: "Hallo, das ist ein Test auf Deutsch.", wantLang: "German", wantOK: true},
		{name: "french text", text: "Bonjour, ceci est un test en français.", wantLang: "French", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && lang.String() != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_DetectISO(t *testing.T) {
	d := allLanguages()

	tests := []struct {
		name     string
		text     string
		wantCode string
	}{
		{name: "english text", text: "Hello, this is a test in English.", wantCode: "en"},
		{name: "ukrainian text", text: "Привіт, це тест українською мовою.", wantCode: "uk"},
		{name: "spanish text", text: "Hola, esto es una prueba en español.", wantCode: "es"},
		{name: "russian text", text: "Это тест на русском языке.", wantCode: "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := d.DetectISO(tt.text)
			if !ok {
				t.Fatalf("DetectISO(%q) not detected", tt.text)
			}
			if code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_Restricted(t *testing.T) {
	d := New("en", "UK", " de ", "xx")

	code, ok := d.DetectISO("Привіт, це тест українською мовою.")
	if !ok || code != "uk" {
		t.Errorf("expected uk, got %q (ok=%v)", code, ok)
	}

	code, ok = d.DetectISO("Hallo, das ist ein Test auf Deutsch.")
	if !ok || code != "de" {
		t.Errorf("expected de, got %q (ok=%v)", code, ok)
	}
}

func TestDetector_AllLanguagesKeepsNeighbours(t *testing.T) {
	d := allLanguages().WithMinConfidence(DefaultMinConfidence)

	tests := []struct {
		text     string
		wantCode string
	}{
		{"Dit is een eenvoudige zin in het Nederlands, geschreven voor de test.", "nl"},
		{"Det här är en enkel mening på svenska som vi använder i testet.", "sv"},
		{"Hallo, das ist ein Test auf Deutsch.", "de"},
	}

	for _, tt := range tests {
		code, ok := d.DetectISO(tt.text)
		if !ok || code != tt.wantCode {
			t.Errorf("DetectISO(%q) = %q (ok=%v), want %q", tt.text, code, ok, tt.wantCode)
		}
	}
}

func TestDetector_MinConfidence(t *testing.T) {
	d := New("en", "de")
	text := "Hallo, das ist ein Test auf Deutsch."

	if _, ok := d.WithMinConfidence(1.01).DetectISO(text); ok {
		t.Error("expected no language when the threshold cannot be met")
	}
	if code, ok := d.WithMinConfidence(0.01).DetectISO(text); !ok || code != "de" {
		t.Errorf("expected de, got %q (ok=%v)", code, ok)
	}
	if code, ok := d.DetectISO(text); !ok || code != "de" {
		t.Errorf("expected the original detector to be unchanged, got %q (ok=%v)", code, ok)
	}
}

func TestLanguagesFor(t *testing.T) {
	if got := languagesFor([]string{"en", "xx", "Fr"}); len(got) != 2 {
		t.Errorf("expected 2 known languages, got %d", len(got))
	}
	if got := languagesFor(nil); len(got) != 0 {
		t.Errorf("expected no languages, got %d", len(got))
	}
}
