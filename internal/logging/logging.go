// Package logging builds the zerolog logger used across polyglot.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File, when set, receives JSON logs through a rotating writer instead
	// of stderr.
	File string
	// JSON forces JSON output on a terminal.
	JSON bool
}

// New returns a logger and a close function for the log file, if any.
func New(opts Options) (zerolog.Logger, func() error) {
	return newWithWriter(opts, os.Stderr, isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}

func newWithWriter(opts Options, stderr io.Writer, terminal bool) (zerolog.Logger, func() error) {
	var (
		out     io.Writer
		closeFn = func() error { return nil }
	)
	switch {
	case opts.File != "":
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		out, closeFn = rotating, rotating.Close
	case terminal && !opts.JSON:
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	default:
		out = stderr
	}

	logger := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return logger, closeFn
}

// ParseLevel converts a level name into a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
