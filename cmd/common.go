/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"

	"github.com/valpere/polyglot/internal/arbiter"
	"github.com/valpere/polyglot/internal/config"
	"github.com/valpere/polyglot/internal/detector"
	"github.com/valpere/polyglot/internal/engine"
	"github.com/valpere/polyglot/internal/refiner"
	"github.com/valpere/polyglot/internal/store"
	"github.com/valpere/polyglot/internal/translator"
	"github.com/valpere/polyglot/internal/validator"
)

// addProviderFlags registers the flags shared by serve and translate.
func addProviderFlags(fs *pflag.FlagSet) {
	fs.StringSlice("services", []string{"google"}, "Translation services to use (comma-separated)")
	fs.StringP("credentials", "c", "", "Path to Google Cloud credentials")
	fs.StringP("project", "p", "", "Google Cloud project billed for quota")
	fs.String("ollama-url", "http://localhost:11434", "Ollama base URL")
	fs.StringSlice("ollama-models", nil, "Ollama models to rotate (default list used if empty)")
	fs.String("openrouter-key", "", "OpenRouter API key")
	fs.StringSlice("openrouter-models", nil, "OpenRouter models to rotate (default list used if empty)")
	fs.String("systran-key", "", "Systran API key")
	fs.String("mymemory-email", "", "MyMemory email (for higher limits)")
	fs.Bool("no-cache", false, "Disable translation memory cache")
	fs.Int("max-retries", 3, "Total attempts per service including the first (1 = no retries)")
	fs.Duration("request-timeout", 30*time.Second, "Timeout for a single service attempt")
	fs.Bool("validate", false, "Discard results that are not in the target language")
	fs.Float64("detect-min-confidence", 0.5, "Send source_lang auto to the services when detection is less certain than this")
	fs.Int("max-chunk-chars", 4000, "Translate longer texts in pieces of this many characters (0 = whole)")
	fs.Int("max-parallel", 0, "Concurrent service calls per request (0 = all services at once)")
	fs.Int("context-words", 25, "Words of the previous translated piece passed along as context")

	fs.Bool("arbiter", false, "Use LLM arbiter to select best translation")
	fs.String("arbiter-model", "llama3.2", "Arbiter model name")
	fs.String("arbiter-url", "http://localhost:11434", "Arbiter Ollama URL")
	fs.Bool("refine", false, "Enable literary refinement of the chosen translation")
	fs.String("refiner-model", "llama3.2", "Refiner model name")
	fs.String("refiner-url", "http://localhost:11434", "Refiner Ollama URL")
}

// buildProviders constructs the translation services named in the config.
func buildProviders(c *config.Config) ([]translator.Provider, error) {
	var list []translator.Provider

	for _, name := range c.Services {
		switch name {
		case "google":
			var opts []option.ClientOption
			if c.ProjectID != "" {
				opts = append(opts, option.WithQuotaProject(c.ProjectID))
			}
			list = append(list, translator.NewGoogle(c.Credentials, opts...))
		case "systran":
			list = append(list, translator.NewSystran(c.SystranKey))
		case "mymemory":
			list = append(list, translator.NewMyMemory(c.MyMemoryEmail))
		case "ollama":
			list = append(list, translator.NewOllama(c.OllamaURL, c.OllamaModels))
		case "openrouter":
			list = append(list, translator.NewOpenRouter(c.OpenRouterKey, "", c.OpenRouterModels))
		default:
			return nil, fmt.Errorf("unknown service: %s", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return list, nil
}

func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildEngine wires providers, translation memory, detection and
// validation. The returned function releases the database.
func buildEngine(c *config.Config, providers []translator.Provider, log zerolog.Logger) (*engine.Engine, func() error, error) {
	closeFn := func() error { return nil }
	opts := []engine.Option{engine.WithLogger(log)}

	if !c.NoCache && c.DB != "" {
		db, err := openStore(c.DB)
		if err != nil {
			return nil, nil, err
		}
		closeFn = db.Close

		var cache engine.Cache = db
		if c.CacheSize > 0 {
			mem, err := engine.NewMemoryCache(c.CacheSize, db)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			cache = mem
		}
		opts = append(opts, engine.WithCache(cache))
	}

	if c.Arbiter {
		opts = append(opts, engine.WithArbiter(arbiter.NewOllama(c.ArbiterModel, c.ArbiterURL)))
	}
	if c.Refine {
		opts = append(opts, engine.WithRefiner(refiner.NewOllama(c.RefinerModel, c.RefinerURL)))
	}

	det := detector.New(c.DetectLanguages...).WithMinConfidence(c.DetectMinConf)
	opts = append(opts, engine.WithDetector(det))
	if c.ValidateOutput {
		opts = append(opts, engine.WithValidator(validator.New(det)))
	}

	eng := engine.New(providers, engine.Config{
		Timeout:        c.RequestTimeout,
		MaxAttempts:    c.MaxAttempts,
		RetryDelay:     c.RetryDelay,
		ValidateOutput: c.ValidateOutput,
		MaxChunkRunes:  c.MaxChunkChars,
		ContextWords:   c.ContextWords,
		MaxParallel:    c.MaxParallel,
	}, opts...)
	return eng, closeFn, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// pingProviders warns about self-hosted services that do not answer.
func pingProviders(ctx context.Context, providers []translator.Provider, log zerolog.Logger) {
	for _, p := range providers {
		if pp, ok := p.(pinger); ok {
			if err := pp.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("provider", p.Name()).Msg("service is not reachable")
			}
		}
	}
}
