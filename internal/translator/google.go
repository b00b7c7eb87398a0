package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// Google talks to Cloud Translation (v2). With an empty credentials path
// the client falls back to Application Default Credentials.
type Google struct {
	opts []option.ClientOption
}

func NewGoogle(credentialsFile string, opts ...option.ClientOption) *Google {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Google{opts: opts}
}

func (s *Google) Name() string {
	return "google"
}

func (s *Google) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("google: invalid target language %q: %w", req.TargetLang, err)
	}

	// v2 defaults to HTML and would escape entities in plain text
	opts := &translate.Options{Format: translate.Text}
	if !req.AutoDetect() {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return nil, fmt.Errorf("google: invalid source language %q: %w", req.SourceLang, err)
		}
		opts.Source = source
	}

	client, err := translate.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, target, opts)
	if err != nil {
		return nil, fmt.Errorf("google: translation failed: %w", err)
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("google: no translation returned")
	}

	res := &Result{
		Provider:   s.Name(),
		Text:       translations[0].Text,
		Confidence: 1.0,
		Latency:    time.Since(start),
	}
	if req.AutoDetect() {
		res.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}
	return res, nil
}
