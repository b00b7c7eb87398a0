package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglot/internal/translator"
)

func waitReady(t *testing.T, m *Manager) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.WaitReady(ctx)
}

func echo(addr, body string) (string, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post("http://"+addr+"/echo", "text/plain", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return string(data), err
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager(Config{}, &fakeTranslator{}, zerolog.Nop())
	assert.False(t, m.Running())

	m.Start()
	addr, err := waitReady(t, m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, Host+":"), addr)
	assert.Equal(t, addr, m.Addr())
	assert.True(t, m.Running())
	assert.NoError(t, m.Err())

	got, err := echo(addr, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.Running())
	assert.Empty(t, m.Addr())

	_, err = m.WaitReady(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = echo(addr, "hello")
	assert.Error(t, err, "listener should be closed after Stop")
}

func TestManager_StopWhenStopped(t *testing.T) {
	m := NewManager(Config{}, &fakeTranslator{}, zerolog.Nop())

	assert.NoError(t, m.Stop(context.Background()))
	assert.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.Running())
}

func TestManager_StartTwice(t *testing.T) {
	m := NewManager(Config{MetricsEnabled: true}, &fakeTranslator{}, zerolog.Nop())
	t.Cleanup(func() { m.Stop(context.Background()) })

	m.Start()
	first, err := waitReady(t, m)
	require.NoError(t, err)

	m.Start()
	second, err := waitReady(t, m)
	require.NoError(t, err)
	assert.True(t, m.Running())

	got, err := echo(second, "again")
	require.NoError(t, err)
	assert.Equal(t, "again", got)

	if first != second {
		_, err = echo(first, "old")
		assert.Error(t, err, "previous listener should be gone")
	}
}

func TestManager_RestartOnSamePort(t *testing.T) {
	ln, err := net.Listen("tcp", net.JoinHostPort(Host, "0"))
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := NewManager(Config{Port: port}, &fakeTranslator{}, zerolog.Nop())
	t.Cleanup(func() { m.Stop(context.Background()) })

	for i := 0; i < 3; i++ {
		m.Start()
		addr, err := waitReady(t, m)
		require.NoError(t, err, "start %d", i)
		assert.Equal(t, ln.Addr().String(), addr)
	}

	got, err := echo(m.Addr(), "same port")
	require.NoError(t, err)
	assert.Equal(t, "same port", got)
}

func TestManager_BindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", net.JoinHostPort(Host, "0"))
	require.NoError(t, err)
	defer busy.Close()

	m := NewManager(Config{Port: busy.Addr().(*net.TCPAddr).Port}, &fakeTranslator{}, zerolog.Nop())
	m.Start()

	_, err = waitReady(t, m)
	require.Error(t, err)
	assert.True(t, m.Running(), "failed listener keeps its handle")
	assert.Error(t, m.Err())
	assert.Empty(t, m.Addr())

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
}

func TestManager_StopCancelsInflight(t *testing.T) {
	started := make(chan struct{})
	tr := &fakeTranslator{fn: func(ctx context.Context, req translator.Request) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	m := NewManager(Config{ShutdownTimeout: 50 * time.Millisecond}, tr, zerolog.Nop())
	m.Start()
	addr, err := waitReady(t, m)
	require.NoError(t, err)

	go func() {
		body := `{"text":"Hello","source_lang":"en","target_lang":"uk"}`
		resp, err := http.Post("http://"+addr+"/translate", "application/json", strings.NewReader(body))
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	done := make(chan error, 1)
	go func() { done <- m.Stop(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err, "shutdown should report the forced close")
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, m.Running())
}

func TestTranslatorFunc(t *testing.T) {
	var f Translator = TranslatorFunc(func(ctx context.Context, req translator.Request) (string, error) {
		return strings.ToUpper(req.Text), nil
	})
	out, err := f.Translate(context.Background(), translator.Request{Text: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}
