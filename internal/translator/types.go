package translator

import (
	"context"
	"time"
)

// Request is the body accepted by POST /translate and the unit of work
// handed to every provider.
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`

	// Instructions are extra prompt lines for LLM providers.
	Instructions string `json:"-"`
}

// AutoDetect reports whether the source language is left to the provider.
func (r Request) AutoDetect() bool {
	return r.SourceLang == "" || r.SourceLang == "auto"
}

type Result struct {
	Provider   string            `json:"provider"`
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Latency    time.Duration     `json:"latency"`
}

type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}
