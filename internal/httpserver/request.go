package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/valpere/polyglot/internal/translator"
)

// ParseErrorKind tells why a translate body was rejected.
type ParseErrorKind int

const (
	// KindSyntax is a body that is not a JSON object.
	KindSyntax ParseErrorKind = iota
	// KindMissing is an object without one of the required fields.
	KindMissing
	// KindWrongType is a required field that is not a JSON string.
	KindWrongType
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindMissing:
		return "missing field"
	case KindWrongType:
		return "wrong type"
	default:
		return "syntax"
	}
}

type ParseError struct {
	Kind  ParseErrorKind
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

var requiredFields = []string{"text", "source_lang", "target_lang"}

// ParseTranslateRequest decodes a POST /translate body. All three fields
// must be present and hold JSON strings; anything else is a *ParseError.
func ParseTranslateRequest(body []byte) (translator.Request, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return translator.Request{}, &ParseError{Kind: KindSyntax, Err: err}
	}
	if raw == nil {
		return translator.Request{}, &ParseError{Kind: KindSyntax, Err: fmt.Errorf("body is null")}
	}

	values := make(map[string]string, len(requiredFields))
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok {
			return translator.Request{}, &ParseError{Kind: KindMissing, Field: field}
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return translator.Request{}, &ParseError{Kind: KindWrongType, Field: field, Err: fmt.Errorf("null is not a string")}
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return translator.Request{}, &ParseError{Kind: KindWrongType, Field: field, Err: err}
		}
		values[field] = s
	}

	return translator.Request{
		Text:       values["text"],
		SourceLang: values["source_lang"],
		TargetLang: values["target_lang"],
	}, nil
}
