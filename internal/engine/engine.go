// Package engine is the translation collaborator behind POST /translate.
//
// A request is answered from the translation memory when possible. Otherwise
// every configured provider is asked in parallel, each with its own timeout
// and retry budget, and the most confident usable answer wins unless an
// arbiter picks another. Markup is shielded with placeholder markers while
// the text is away, long texts are sent in pieces, and "auto" source
// languages are resolved locally when a detector is configured so that
// cache keys stay stable.
package engine

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/polyglot/internal/arbiter"
	"github.com/valpere/polyglot/internal/chunker"
	"github.com/valpere/polyglot/internal/detector"
	"github.com/valpere/polyglot/internal/placeholder"
	"github.com/valpere/polyglot/internal/refiner"
	"github.com/valpere/polyglot/internal/store"
	"github.com/valpere/polyglot/internal/translator"
	"github.com/valpere/polyglot/internal/validator"
)

type Config struct {
	// Timeout bounds a single provider attempt. Zero means no bound beyond
	// the request context.
	Timeout time.Duration

	// MaxAttempts is the number of tries per provider, including the first.
	MaxAttempts int

	RetryDelay time.Duration

	// ValidateOutput drops results that are not in the target language.
	ValidateOutput bool

	// MaxChunkRunes splits longer texts into pieces translated in order.
	// Zero sends every text whole.
	MaxChunkRunes int

	// ContextWords is how much of the previous translated piece LLM
	// providers see as context.
	ContextWords int

	// MaxParallel caps concurrent provider calls per piece. Zero asks all
	// providers at once.
	MaxParallel int
}

type Option func(*Engine)

func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithDetector(d *detector.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

func WithValidator(v *validator.Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithArbiter lets a judge choose among several usable results.
func WithArbiter(a arbiter.Arbiter) Option {
	return func(e *Engine) { e.arbiter = a }
}

// WithRefiner adds a polishing pass over the chosen result.
func WithRefiner(r refiner.Refiner) Option {
	return func(e *Engine) { e.refiner = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

type Engine struct {
	providers []translator.Provider
	cfg       Config
	cache     Cache
	detector  *detector.Detector
	validator *validator.Validator
	arbiter   arbiter.Arbiter
	refiner   refiner.Refiner
	logger    zerolog.Logger
	newID     func() string
}

func New(providers []translator.Provider, cfg Config, opts ...Option) *Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	e := &Engine{
		providers: providers,
		cfg:       cfg,
		logger:    zerolog.Nop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers returns the provider names in priority order.
func (e *Engine) Providers() []string {
	names := make([]string, 0, len(e.providers))
	for _, p := range e.providers {
		names = append(names, p.Name())
	}
	return names
}

type outcome struct {
	res *translator.Result
	err error
}

// Translate returns the translation of req.Text. A nil error is the only
// success signal; use CodeOf to classify failures.
func (e *Engine) Translate(ctx context.Context, req translator.Request) (string, error) {
	if len(e.providers) == 0 {
		return "", ErrNoProviders
	}
	req.TargetLang = strings.TrimSpace(req.TargetLang)
	if req.TargetLang == "" {
		return "", ErrMissingTarget
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}

	req.SourceLang = strings.TrimSpace(req.SourceLang)
	if req.AutoDetect() {
		req.SourceLang = "auto"
		if e.detector != nil {
			if code, ok := e.detector.DetectISO(req.Text); ok {
				req.SourceLang = code
			}
		}
	}
	log := e.logger.With().Str("source", req.SourceLang).Str("target", req.TargetLang).Logger()

	if sameLanguage(req.SourceLang, req.TargetLang) {
		log.Debug().Msg("source and target match, returning input")
		return req.Text, nil
	}

	if e.cache != nil {
		text, ok, err := e.cache.Lookup(ctx, req.Text, req.SourceLang, req.TargetLang)
		if err != nil {
			log.Warn().Err(err).Msg("translation memory lookup failed")
		} else if ok {
			log.Debug().Msg("translation memory hit")
			return text, nil
		}
	}

	protected, markers := placeholder.Protect(req.Text)
	pieces := chunker.Split(protected, e.cfg.MaxChunkRunes)
	if len(pieces) > 1 {
		log.Debug().Int("pieces", len(pieces)).Msg("text split for translation")
	}

	var (
		out       = make([]string, len(pieces))
		providers []string
		results   []store.ProviderResult
		previous  string
	)
	for i, piece := range pieces {
		work := req
		work.Text = piece.Text
		work.Instructions = instructions(len(placeholder.Markers(piece.Text)) > 0, previous, e.cfg.ContextWords)

		res, tried, err := e.translatePiece(ctx, log, work, markers)
		results = append(results, tried...)
		if err != nil {
			return "", err
		}
		out[i] = res.Text
		previous = markers.Restore(res.Text)
		if !containsString(providers, res.Provider) {
			providers = append(providers, res.Provider)
		}
	}
	final := markers.Restore(chunker.Join(pieces, out))

	if e.cache != nil {
		entry := store.Entry{
			RequestID:  e.newID(),
			SourceText: req.Text,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			FinalText:  final,
			Provider:   strings.Join(providers, "+"),
			Results:    results,
		}
		if err := e.cache.Remember(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("failed to update translation memory")
		}
	}

	return final, nil
}

// translatePiece runs one piece through every provider and returns the
// chosen result with markers still in place, plus a record of each try.
func (e *Engine) translatePiece(ctx context.Context, log zerolog.Logger, req translator.Request, markers placeholder.Set) (*translator.Result, []store.ProviderResult, error) {
	outcomes := e.fanOut(ctx, req)

	var (
		best       *translator.Result
		candidates []translator.Result
		errs       []error
		tried      = make([]store.ProviderResult, 0, len(outcomes))
	)
	for i, o := range outcomes {
		name := e.providers[i].Name()
		if o.err == nil {
			o.err = e.check(o.res, req.Text, markers, req.TargetLang)
		}
		if o.err != nil {
			log.Debug().Err(o.err).Str("provider", name).Msg("provider result discarded")
			errs = append(errs, o.err)
			tried = append(tried, store.ProviderResult{Provider: name, Error: o.err.Error()})
			continue
		}
		tried = append(tried, store.ProviderResult{
			Provider:   name,
			Text:       markers.Restore(o.res.Text),
			Confidence: o.res.Confidence,
			Latency:    o.res.Latency,
		})
		candidates = append(candidates, *o.res)
		if best == nil || o.res.Confidence > best.Confidence {
			best = o.res
		}
	}

	if best == nil {
		if err := ctx.Err(); err != nil {
			return nil, tried, errors.Wrap(err, "translation aborted")
		}
		return nil, tried, &FailedError{Errors: errs}
	}

	if e.arbiter != nil && len(candidates) > 1 {
		best = e.arbitrate(ctx, log, req, candidates, best)
	}
	log.Debug().Str("provider", best.Provider).Float64("confidence", best.Confidence).Msg("translation selected")

	if e.refiner != nil {
		refined, err := e.refiner.Refine(ctx, req, best.Text)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("refinement failed, keeping draft")
		case strings.TrimSpace(refined) == "":
		case len(placeholder.Dropped(req.Text, refined)) > 0:
			log.Warn().Msg("refinement dropped markup markers, keeping draft")
		default:
			best = &translator.Result{Provider: best.Provider, Text: refined, Confidence: best.Confidence}
		}
	}

	return best, tried, nil
}

func (e *Engine) arbitrate(ctx context.Context, log zerolog.Logger, req translator.Request, candidates []translator.Result, fallback *translator.Result) *translator.Result {
	choice, err := e.arbiter.Choose(ctx, req, candidates)
	if err != nil {
		log.Warn().Err(err).Str("fallback", fallback.Provider).Msg("arbiter failed, using most confident result")
		return fallback
	}
	if dropped := placeholder.Dropped(req.Text, choice.Text); len(dropped) > 0 {
		log.Warn().Str("fallback", fallback.Provider).Msg("arbiter dropped markup markers, using most confident result")
		return fallback
	}

	log.Debug().Str("provider", choice.Provider).Str("reasoning", choice.Reasoning).Msg("arbiter decision")
	return &translator.Result{Provider: choice.Provider, Text: choice.Text, Confidence: fallback.Confidence}
}

func instructions(hasMarkers bool, previous string, contextWords int) string {
	var lines []string
	if hasMarkers {
		lines = append(lines, placeholder.Hint)
	}
	if previous != "" {
		lines = append(lines, "For context, the previous passage was translated as: "+chunker.Tail(previous, contextWords)+"\nDo not repeat it.")
	}
	return strings.Join(lines, "\n")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fanOut asks the providers concurrently, at most MaxParallel at a time.
// Outcomes keep provider order. A provider error is an outcome, not a group
// error, so one failure never cancels the others.
func (e *Engine) fanOut(ctx context.Context, req translator.Request) []outcome {
	outcomes := make([]outcome, len(e.providers))

	var g errgroup.Group
	if e.cfg.MaxParallel > 0 {
		g.SetLimit(e.cfg.MaxParallel)
	}
	for i, p := range e.providers {
		g.Go(func() error {
			res, err := e.callWithRetry(ctx, p, req)
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (e *Engine) callWithRetry(ctx context.Context, p translator.Provider, req translator.Request) (*translator.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		res, err := e.call(ctx, p, req)
		if err == nil {
			return res, nil
		}
		lastErr = errors.Wrapf(err, "%s attempt %d", p.Name(), attempt)

		if attempt == e.cfg.MaxAttempts || !retryable(err) {
			break
		}
		e.logger.Debug().Err(err).Str("provider", p.Name()).Int("attempt", attempt).Msg("retrying provider")

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(e.cfg.RetryDelay):
		}
	}
	return nil, lastErr
}

func (e *Engine) call(ctx context.Context, p translator.Provider, req translator.Request) (*translator.Result, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	res, err := p.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil || strings.TrimSpace(res.Text) == "" {
		return nil, errors.Errorf("%s returned an empty translation", p.Name())
	}
	if res.Provider == "" {
		res.Provider = p.Name()
	}
	return res, nil
}

// check rejects results that lost markers or are in the wrong language.
func (e *Engine) check(res *translator.Result, source string, markers placeholder.Set, targetLang string) error {
	if dropped := placeholder.Dropped(source, res.Text); len(dropped) > 0 {
		return errors.Errorf("%s dropped %d markup markers", res.Provider, len(dropped))
	}
	if e.cfg.ValidateOutput && e.validator != nil {
		if err := e.validator.Check(markers.Restore(res.Text), targetLang); err != nil {
			return errors.Wrapf(err, "%s output rejected", res.Provider)
		}
	}
	return nil
}

// retryable is false for client errors a second attempt cannot fix.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *translator.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}

func sameLanguage(source, target string) bool {
	if source == "" || source == "auto" {
		return false
	}
	source, target = strings.ToLower(source), strings.ToLower(target)
	return source == target || strings.HasPrefix(target, source+"-")
}
