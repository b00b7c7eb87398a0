package refiner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/polyglot/internal/postprocess"
	"github.com/valpere/polyglot/internal/translator"
)

// Ollama uses a local Ollama model as a literary editor.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func NewOllama(model, baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Refine returns the polished draft. An empty answer keeps the draft.
func (r *Ollama) Refine(ctx context.Context, req translator.Request, draft string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  r.model,
		Prompt: buildPrompt(req, draft),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal refinement request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create refinement request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &translator.StatusError{Provider: "refiner", Code: resp.StatusCode}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode refinement response: %w", err)
	}

	refined := postprocess.Clean(out.Response)
	if refined == "" {
		return draft, nil
	}
	return refined, nil
}

func buildPrompt(req translator.Request, draft string) string {
	source := req.SourceLang
	if req.AutoDetect() {
		source = "original"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert %s literary editor.\n\n", req.TargetLang)
	fmt.Fprintf(&sb, "ORIGINAL (%s):\n%s\n\n", source, req.Text)
	fmt.Fprintf(&sb, "DRAFT TRANSLATION (%s):\n%s\n\n", req.TargetLang, draft)
	sb.WriteString(`Rewrite the draft so it reads naturally:
- replace awkward literal phrasing with idiomatic expressions
- vary repetitive vocabulary
- fix unnatural word order
Keep every fact, name and technical term. If the draft is already good, return it unchanged.
`)
	if req.Instructions != "" {
		sb.WriteString(req.Instructions)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Output ONLY the refined translation in %s, without any explanation.", req.TargetLang)
	return sb.String()
}
