package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/polyglot/internal/translator"
)

type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
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
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Ollama) Choose(ctx context.Context, req translator.Request, candidates []translator.Result) (*Choice, error) {
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("no candidates to choose from")
	case 1:
		return &Choice{
			Provider:  candidates[0].Provider,
			Text:      candidates[0].Text,
			Reasoning: "only one candidate",
		}, nil
	}

	body, err := json.Marshal(generateRequest{
		Model:  a.model,
		Prompt: buildPrompt(req, candidates),
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arbiter request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create arbiter request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("arbiter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &translator.StatusError{Provider: "arbiter", Code: resp.StatusCode}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode arbiter response: %w", err)
	}
	return parseChoice(out.Response, candidates)
}

func buildPrompt(req translator.Request, candidates []translator.Result) string {
	var sb strings.Builder
	sb.WriteString("You are a professional translation evaluator.\n")
	fmt.Fprintf(&sb, "Original text (%s):\n%q\n\n", req.SourceLang, req.Text)
	fmt.Fprintf(&sb, "Candidate translations to %s:\n", req.TargetLang)
	for i, c := range candidates {
		fmt.Fprintf(&sb, "  %d. [%s]: %q\n", i+1, c.Provider, c.Text)
	}
	sb.WriteString("\nSelect the best translation or compose an improved one from the candidates.\n")
	if req.Instructions != "" {
		sb.WriteString(req.Instructions)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, `Respond ONLY in JSON:
{
  "selected_service": "<one of the bracketed names or %s>",
  "final_text": "...",
  "reasoning": "..."
}
`, Composite)
	return sb.String()
}

func parseChoice(response string, candidates []translator.Result) (*Choice, error) {
	var parsed struct {
		SelectedService string `json:"selected_service"`
		FinalText       string `json:"final_text"`
		Reasoning       string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse arbiter response as JSON: %w", err)
	}

	choice := &Choice{
		Provider:  parsed.SelectedService,
		Text:      strings.TrimSpace(parsed.FinalText),
		Reasoning: parsed.Reasoning,
	}
	if choice.IsComposite() {
		if choice.Text == "" {
			return nil, fmt.Errorf("arbiter composed an empty translation")
		}
		return choice, nil
	}

	for _, c := range candidates {
		if c.Provider == choice.Provider {
			if choice.Text == "" {
				choice.Text = c.Text
			}
			return choice, nil
		}
	}
	return nil, fmt.Errorf("arbiter selected unknown service %q", parsed.SelectedService)
}
