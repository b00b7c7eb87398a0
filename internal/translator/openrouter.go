package translator

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valpere/polyglot/internal/postprocess"
)

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

type OpenRouter struct {
	apiKey  string
	baseURL string
	models  *rotation
	client  *http.Client
}

func NewOpenRouter(apiKey, baseURL string, models []string) *OpenRouter {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  newRotation(models, DefaultOpenRouterModels),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouter) Name() string {
	return "openrouter"
}

func (s *OpenRouter) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if s.apiKey == "" {
		return nil, errors.New("openrouter: API key required")
	}
	model := s.models.pick()

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(req)},
			{"role": "user", "content": req.Text},
		},
		"max_tokens": 4096,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiKey)
	header.Set("X-Title", "Polyglot")

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/chat/completions", header, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("openrouter: empty response")
	}
	text := postprocess.Clean(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.New("openrouter: empty response")
	}

	return &Result{
		Provider:   s.Name(),
		Text:       text,
		Confidence: 0.7,
		Metadata: map[string]string{
			"model":             model,
			"prompt_tokens":     strconv.Itoa(resp.Usage.PromptTokens),
			"completion_tokens": strconv.Itoa(resp.Usage.CompletionTokens),
		},
		Latency: time.Since(start),
	}, nil
}
