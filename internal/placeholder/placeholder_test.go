package placeholder

import (
	"reflect"
	"testing"
)

func TestProtect(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantSet  Set
	}{
		{
			name:     "plain text",
			input:    "Hello world",
			wantText: "Hello world",
			wantSet:  nil,
		},
		{
			name:     "html tags",
			input:    "<b>Hello</b> world",
			wantText: "[PH0]Hello[PH1] world",
			wantSet:  Set{"<b>", "</b>"},
		},
		{
			name:     "inline code",
			input:    "Run `make test` now",
			wantText: "Run [PH0] now",
			wantSet:  Set{"`make test`"},
		},
		{
			name:     "fenced block swallows tags inside",
			input:    "See:\n```\n<div>x</div>\n```\n<i>done</i>",
			wantText: "See:\n[PH0]\n[PH1]done[PH2]",
			wantSet:  Set{"```\n<div>x</div>\n```", "<i>", "</i>"},
		},
		{
			name:     "comparison signs are text",
			input:    "If x < 3 and y > 2 then stop",
			wantText: "If x < 3 and y > 2 then stop",
			wantSet:  nil,
		},
		{
			name:     "self-closing tag and comment",
			input:    "Line<br/><!-- note -->end",
			wantText: "Line[PH0][PH1]end",
			wantSet:  Set{"<br/>", "<!-- note -->"},
		},
		{
			name:     "markers numbered by position",
			input:    "<b>Hello</b> `x`",
			wantText: "[PH0]Hello[PH1] [PH2]",
			wantSet:  Set{"<b>", "</b>", "`x`"},
		},
		{
			name:     "literal marker text is captured",
			input:    "Type [PH0] to insert a <b>bold</b> word",
			wantText: "Type [PH0] to insert a [PH1]bold[PH2] word",
			wantSet:  Set{"[PH0]", "<b>", "</b>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotSet := Protect(tt.input)
			if gotText != tt.wantText {
				t.Errorf("text = %q, want %q", gotText, tt.wantText)
			}
			if !reflect.DeepEqual(gotSet, tt.wantSet) {
				t.Errorf("set = %#v, want %#v", gotSet, tt.wantSet)
			}
		})
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	input := "<p>Hello `x` world</p>"
	text, set := Protect(input)

	if got := set.Restore(text); got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

func TestRestore_LiteralMarkers(t *testing.T) {
	inputs := []string{
		"Type [PH0] to insert a <b>bold</b> word",
		"<i>[PH3]</i> and [PH1]",
		"```\n[PH0]\n``` then <b>[PH0]</b>",
	}

	for _, input := range inputs {
		text, set := Protect(input)
		if got := set.Restore(text); got != input {
			t.Errorf("expected %q, got %q", input, got)
		}
	}
}

func TestRestore_TranslatedText(t *testing.T) {
	_, set := Protect("<b>Hello</b>")

	got := set.Restore("[PH0]Привіт[PH1]")
	if got != "<b>Привіт</b>" {
		t.Errorf("expected restored markup, got %q", got)
	}
}

func TestRestore_UnknownMarker(t *testing.T) {
	_, set := Protect("<b>Hello</b>")

	got := set.Restore("[PH0]x[PH1][PH7]")
	if got != "<b>x</b>[PH7]" {
		t.Errorf("expected unknown marker to survive, got %q", got)
	}
}

func TestDropped(t *testing.T) {
	source, _ := Protect("<a><b><c>")

	if dropped := Dropped(source, "[PH0] [PH2]"); !reflect.DeepEqual(dropped, []int{1}) {
		t.Errorf("expected [1], got %v", dropped)
	}
	if dropped := Dropped(source, "[PH2][PH1][PH0]"); dropped != nil {
		t.Errorf("expected nothing dropped, got %v", dropped)
	}
	if dropped := Dropped("no markers", "anything"); dropped != nil {
		t.Errorf("expected nil without markers, got %v", dropped)
	}
	// a chunk only owes the markers it was given
	if dropped := Dropped("[PH1] text", "[PH1] текст"); dropped != nil {
		t.Errorf("expected chunk markers to be kept, got %v", dropped)
	}
}

func TestMarkers(t *testing.T) {
	if got := Markers("[PH2] a [PH0] b [PH2]"); !reflect.DeepEqual(got, []int{2, 0}) {
		t.Errorf("expected [2 0], got %v", got)
	}
	if got := Markers("[PH] [PHx]"); got != nil {
		t.Errorf("expected no markers, got %v", got)
	}
}
