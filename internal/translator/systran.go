package translator

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const systranHost = "api-systran-systran-translation-v1.p.rapidapi.com"

// Systran goes through the RapidAPI gateway.
type Systran struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystran(apiKey string) *Systran {
	return &Systran{
		apiKey:  apiKey,
		baseURL: "https://" + systranHost,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (s *Systran) Name() string {
	return "systran"
}

func (s *Systran) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if s.apiKey == "" {
		return nil, errors.New("systran: API key required")
	}

	body := map[string]any{
		"input":  req.Text,
		"target": req.TargetLang,
		"format": "text",
	}
	if !req.AutoDetect() {
		body["source"] = req.SourceLang
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", s.apiKey)
	header.Set("X-RapidAPI-Host", systranHost)

	var resp struct {
		Outputs []struct {
			Output string `json:"output"`
		} `json:"outputs"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/translation/text/translate", header, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Outputs) == 0 || resp.Outputs[0].Output == "" {
		return nil, errors.New("systran: empty translation response")
	}

	return &Result{
		Provider:   s.Name(),
		Text:       resp.Outputs[0].Output,
		Confidence: 0.9,
		Latency:    time.Since(start),
	}, nil
}
