// Package httpserver runs the local loopback listener that serves
// POST /echo and POST /translate.
//
// A Manager owns at most one listener. Start replaces any running listener
// with a fresh one and Stop shuts it down and waits for it to exit, so the
// two can be called from any goroutine in any order.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/valpere/polyglot/internal/translator"
)

// Host is the only address the listener binds to.
const Host = "127.0.0.1"

const (
	DefaultPort            = 18080
	DefaultShutdownTimeout = 5 * time.Second
)

var ErrNotRunning = errors.New("http server not running")

// Translator is the collaborator behind POST /translate. A nil error is
// the only success signal.
type Translator interface {
	Translate(ctx context.Context, req translator.Request) (string, error)
}

// TranslatorFunc adapts a plain function to Translator.
type TranslatorFunc func(ctx context.Context, req translator.Request) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, req translator.Request) (string, error) {
	return f(ctx, req)
}

type Config struct {
	// Port on Host. Zero picks a free port; WaitReady reports it.
	Port int

	// ShutdownTimeout bounds the graceful part of Stop. After it expires
	// open connections are closed.
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps request bodies. Zero means no cap.
	MaxBodyBytes int64

	MetricsEnabled bool
}

type Manager struct {
	mu         sync.Mutex
	cfg        Config
	translator Translator
	logger     zerolog.Logger
	metrics    *metrics
	inst       *instance
}

// instance is one listener from Start to Stop.
type instance struct {
	srv    *http.Server
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	mu   sync.Mutex
	addr string
	err  error
}

func (i *instance) setErr(err error) {
	i.mu.Lock()
	i.err = err
	i.mu.Unlock()
}

func (i *instance) state() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.addr, i.err
}

// NewManager returns a stopped manager.
func NewManager(cfg Config, t Translator, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		translator: t,
		logger:     logger.With().Str("component", "httpserver").Logger(),
		metrics:    newMetrics(),
	}
}

// Start launches a new listener on a background goroutine, stopping the
// current one first. Bind errors are reported by WaitReady and Err.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info().Msg("Starting http server...")
	if m.inst != nil {
		m.logger.Info().Msg("Http server already running, stopping...")
		if err := m.stopLocked(context.Background()); err != nil {
			m.logger.Warn().Err(err).Msg("previous http server did not stop cleanly")
		}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	inst := &instance{
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	inst.srv = &http.Server{
		Addr:              net.JoinHostPort(Host, strconv.Itoa(m.cfg.Port)),
		Handler:           m.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	m.inst = inst
	m.metrics.restarts.Inc()

	go m.serve(inst)
}

func (m *Manager) serve(inst *instance) {
	defer close(inst.done)

	ln, err := net.Listen("tcp", inst.srv.Addr)
	if err != nil {
		err = errors.Wrapf(err, "listen on %s", inst.srv.Addr)
		inst.setErr(err)
		close(inst.ready)
		m.logger.Error().Err(err).Msg("Http server start error")
		return
	}

	inst.mu.Lock()
	inst.addr = ln.Addr().String()
	inst.mu.Unlock()
	close(inst.ready)

	m.logger.Info().Str("addr", ln.Addr().String()).Msgf("Http server starting on port %d", ln.Addr().(*net.TCPAddr).Port)
	if err := inst.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		inst.setErr(errors.Wrap(err, "serve"))
		m.logger.Error().Err(err).Msg("Http server error")
	}
	m.logger.Info().Msg("Http server stopped.")
}

// Stop shuts the listener down and waits for its goroutine to exit. It is a
// no-op when nothing is running.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info().Msg("Stopping http server...")
	if m.inst == nil {
		m.logger.Info().Msg("Http server not running.")
		return nil
	}
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	inst := m.inst
	m.inst = nil

	timeout := m.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := inst.srv.Shutdown(shutdownCtx)
	// handlers still running past this point see a canceled context
	inst.cancel()
	if err != nil {
		m.logger.Warn().Err(err).Msg("graceful shutdown incomplete, closing connections")
		if cerr := inst.srv.Close(); cerr != nil {
			m.logger.Warn().Err(cerr).Msg("close http server")
		}
		err = errors.Wrap(err, "shutdown http server")
	}

	<-inst.done
	return err
}

// WaitReady blocks until the current listener has bound its socket or
// failed to. It returns the bound address or the bind error.
func (m *Manager) WaitReady(ctx context.Context) (string, error) {
	m.mu.Lock()
	inst := m.inst
	m.mu.Unlock()
	if inst == nil {
		return "", ErrNotRunning
	}

	select {
	case <-inst.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return inst.state()
}

// Running reports whether a listener handle is held. A listener whose bind
// failed still counts until Stop or Start clears it.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inst != nil
}

// Addr is the bound address, or "" when stopped or not yet bound.
func (m *Manager) Addr() string {
	m.mu.Lock()
	inst := m.inst
	m.mu.Unlock()
	if inst == nil {
		return ""
	}
	addr, _ := inst.state()
	return addr
}

// Err is the bind or serve error of the current listener.
func (m *Manager) Err() error {
	m.mu.Lock()
	inst := m.inst
	m.mu.Unlock()
	if inst == nil {
		return nil
	}
	_, err := inst.state()
	return err
}
