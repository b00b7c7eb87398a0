package translator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/polyglot/internal/postprocess"
)

var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
}

type Ollama struct {
	baseURL string
	models  *rotation
	client  *http.Client
}

func NewOllama(baseURL string, models []string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  newRotation(models, DefaultOllamaModels),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *Ollama) Name() string {
	return "ollama"
}

func (s *Ollama) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	model := s.models.pick()

	body := map[string]any{
		"model":  model,
		"system": systemPrompt(req),
		"prompt": req.Text,
		"stream": false,
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/api/generate", nil, body, &resp); err != nil {
		return nil, err
	}

	text := postprocess.Clean(resp.Response)
	if text == "" {
		return nil, errors.New("ollama: empty response")
	}

	return &Result{
		Provider:   s.Name(),
		Text:       text,
		Confidence: 0.7,
		Metadata:   map[string]string{"model": model},
		Latency:    time.Since(start),
	}, nil
}

// Ping checks that the Ollama daemon answers.
func (s *Ollama) Ping(ctx context.Context) error {
	return doJSON(ctx, s.client, s.Name(), http.MethodGet, s.baseURL+"/api/tags", nil, nil, nil)
}
