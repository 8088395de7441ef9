package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(key string, value any) Logger
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debugf(string, ...any)     {}
func (Nop) Infof(string, ...any)      {}
func (Nop) Warnf(string, ...any)      {}
func (Nop) Errorf(string, ...any)     {}
func (n Nop) With(string, any) Logger { return n }

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewWithWriter returns a logger writing JSON to w. An empty or unknown level
// means info.
func NewWithWriter(w io.Writer, component, level string) Logger {
	z := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// NewConsole returns a human-readable logger, used by the CLI.
func NewConsole(w io.Writer, component, level string) Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return NewWithWriter(cw, component, level)
}

func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l *ZerologLogger) With(key string, value any) Logger {
	return &ZerologLogger{log: l.log.With().Interface(key, value).Logger()}
}
