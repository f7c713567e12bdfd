package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	out    io.Writer
	level  = zerolog.InfoLevel
	format string
)

// Configure sets the level, the format ("console" or "json") and the writer
// used by loggers created afterwards. A nil writer means stderr.
func Configure(lvl, fmtName string, w io.Writer) error {
	parsed := zerolog.InfoLevel
	if lvl != "" {
		var err error
		parsed, err = zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return fmt.Errorf("log level %q: %w", lvl, err)
		}
	}
	switch strings.ToLower(fmtName) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log format %q: must be console or json", fmtName)
	}
	mu.Lock()
	defer mu.Unlock()
	level = parsed
	format = strings.ToLower(fmtName)
	out = w
	return nil
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger tagged with the component field.
func NewZerologLogger(component string) Logger {
	mu.RLock()
	w, lvl, f := out, level, format
	mu.RUnlock()
	if w == nil {
		w = os.Stderr
	}
	if f == "" {
		f = "json"
		if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
			f = "console"
		}
	}
	if f == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
