package httpserver

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	msgParseError    = "Error parsing json"
	msgTranslateFail = "Translation failed"
	msgTooLarge      = "Request body too large"
	msgReadError     = "Error reading request body"
)

// routes builds a fresh router for one listener instance.
func (m *Manager) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(m.metrics.instrument)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(m.logger))

	r.Post("/echo", m.handleEcho)
	r.Post("/translate", m.handleTranslate)
	if m.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", m.metrics.handler())
	}
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug().
				Str("method", r.Method).
				Str("remote", r.RemoteAddr).
				Msgf("Received request on %s", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Manager) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, ok := m.readBody(w, r)
	if !ok {
		return
	}
	writeText(w, http.StatusOK, body)
}

func (m *Manager) handleTranslate(w http.ResponseWriter, r *http.Request) {
	body, ok := m.readBody(w, r)
	if !ok {
		return
	}

	req, err := ParseTranslateRequest(body)
	if err != nil {
		m.logger.Error().Err(err).Msg(msgParseError)
		m.metrics.translations.WithLabelValues("bad_request").Inc()
		writeText(w, http.StatusInternalServerError, []byte(msgParseError))
		return
	}

	out, err := m.translator.Translate(r.Context(), req)
	if err != nil {
		m.logger.Error().Err(err).
			Str("source", req.SourceLang).
			Str("target", req.TargetLang).
			Msg(msgTranslateFail)
		m.metrics.translations.WithLabelValues("failed").Inc()
		writeText(w, http.StatusInternalServerError, []byte(msgTranslateFail))
		return
	}

	m.metrics.translations.WithLabelValues("success").Inc()
	writeText(w, http.StatusOK, []byte(out))
}

// readBody buffers the whole request body. It writes the error response
// itself and reports false when the body could not be read.
func (m *Manager) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	src := io.Reader(r.Body)
	if m.cfg.MaxBodyBytes > 0 {
		src = http.MaxBytesReader(w, r.Body, m.cfg.MaxBodyBytes)
	}

	body, err := io.ReadAll(src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			m.logger.Warn().Int64("limit", tooLarge.Limit).Str("path", r.URL.Path).Msg(msgTooLarge)
			writeText(w, http.StatusRequestEntityTooLarge, []byte(msgTooLarge))
			return nil, false
		}
		m.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msgReadError)
		writeText(w, http.StatusBadRequest, []byte(msgReadError))
		return nil, false
	}
	return body, true
}

func writeText(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
