package translator

import (
	"strings"
	"sync/atomic"
)

// systemPrompt is shared by the LLM-backed providers.
func systemPrompt(req Request) string {
	source := req.SourceLang
	if req.AutoDetect() {
		source = "the language it is written in"
	}

	var sb strings.Builder
	sb.WriteString("You are a professional translator. Translate the user's text from ")
	sb.WriteString(source)
	sb.WriteString(" to ")
	sb.WriteString(req.TargetLang)
	sb.WriteString(".\nReply with the translation only: no explanations, no quotes, no notes.")
	if req.Instructions != "" {
		sb.WriteString("\n")
		sb.WriteString(req.Instructions)
	}
	return sb.String()
}

// rotation hands out models round-robin so consecutive requests spread
// over the configured set.
type rotation struct {
	models []string
	next   atomic.Uint64
}

func newRotation(models, fallback []string) *rotation {
	if len(models) == 0 {
		models = fallback
	}
	return &rotation{models: append([]string(nil), models...)}
}

func (r *rotation) pick() string {
	n := r.next.Add(1) - 1
	return r.models[n%uint64(len(r.models))]
}
