package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranslateRequest(t *testing.T) {
	req, err := ParseTranslateRequest([]byte(`{"text":"Hello","source_lang":"en","target_lang":"uk","extra":1}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello", req.Text)
	assert.Equal(t, "en", req.SourceLang)
	assert.Equal(t, "uk", req.TargetLang)
}

func TestParseTranslateRequest_EmptyStrings(t *testing.T) {
	req, err := ParseTranslateRequest([]byte(`{"text":"","source_lang":"","target_lang":""}`))
	require.NoError(t, err)
	assert.Empty(t, req.Text)
}

func TestParseTranslateRequest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		kind  ParseErrorKind
		field string
	}{
		{"empty body", ``, KindSyntax, ""},
		{"invalid json", `{"text":`, KindSyntax, ""},
		{"array", `["Hello","en","uk"]`, KindSyntax, ""},
		{"null body", `null`, KindSyntax, ""},
		{"missing text", `{"source_lang":"en","target_lang":"uk"}`, KindMissing, "text"},
		{"missing target", `{"text":"Hello","source_lang":"en"}`, KindMissing, "target_lang"},
		{"number", `{"text":42,"source_lang":"en","target_lang":"uk"}`, KindWrongType, "text"},
		{"null field", `{"text":"Hello","source_lang":null,"target_lang":"uk"}`, KindWrongType, "source_lang"},
		{"object field", `{"text":"Hello","source_lang":"en","target_lang":{"code":"uk"}}`, KindWrongType, "target_lang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTranslateRequest([]byte(tt.body))
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.field, perr.Field)
			assert.NotEmpty(t, perr.Error())
		})
	}
}

func TestParseErrorKind_String(t *testing.T) {
	assert.Equal(t, "syntax", KindSyntax.String())
	assert.Equal(t, "missing field", KindMissing.String())
	assert.Equal(t, "wrong type", KindWrongType.String())
}
