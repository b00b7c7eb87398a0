package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const myMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory is the free MyMemory API. It has no auto-detection, so "auto"
// is sent as English. An email raises the daily quota.
type MyMemory struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemory(email string) *MyMemory {
	return &MyMemory{
		email:   email,
		baseURL: myMemoryURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (s *MyMemory) Name() string {
	return "mymemory"
}

func (s *MyMemory) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	source := req.SourceLang
	if req.AutoDetect() {
		source = "en"
	}

	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", source+"|"+req.TargetLang)
	if s.email != "" {
		q.Set("de", s.email)
	}

	var resp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodGet, s.baseURL+"?"+q.Encode(), nil, nil, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseStatus != http.StatusOK {
		return nil, fmt.Errorf("mymemory: API error %d: %s", resp.ResponseStatus, resp.ResponseDetails)
	}

	return &Result{
		Provider:   s.Name(),
		Text:       resp.ResponseData.TranslatedText,
		Confidence: clamp01(resp.ResponseData.Match),
		Latency:    time.Since(start),
	}, nil
}
