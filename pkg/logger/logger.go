// Package logger provides the structured logging collaborator used
// throughout netmon. Unlike a package-level singleton, a Logger is
// constructed once at startup and passed explicitly to every component
// that needs it.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging surface components depend on. Implementations
// wrap zerolog but callers never import zerolog directly, which keeps
// component packages free of a concrete logging dependency.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(name string) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Config controls how a Logger renders and filters events.
type Config struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Pretty     bool   `json:"pretty"`
	TimeFormat string `json:"time_format"`
}

// DefaultConfig returns sane production defaults: info level, RFC3339
// timestamps, JSON output.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Debug:      false,
		Pretty:     false,
		TimeFormat: time.RFC3339,
	}
}

type zlogger struct {
	log zerolog.Logger
}

// New builds a Logger writing to w (os.Stderr in production, a
// bytes.Buffer in tests) according to cfg.
func New(cfg *Config, w io.Writer) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	var writer io.Writer = w
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: w, TimeFormat: cfg.TimeFormat}
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	zerolog.TimeFieldFormat = timeFormat

	base := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	return &zlogger{log: base}
}

// NewNop returns a Logger that discards all events, for tests that need
// a collaborator but don't assert on log output.
func NewNop() Logger {
	return &zlogger{log: zerolog.Nop()}
}

func (z *zlogger) Trace() *zerolog.Event { return z.log.Trace() }
func (z *zlogger) Debug() *zerolog.Event { return z.log.Debug() }
func (z *zlogger) Info() *zerolog.Event  { return z.log.Info() }
func (z *zlogger) Warn() *zerolog.Event  { return z.log.Warn() }
func (z *zlogger) Error() *zerolog.Event { return z.log.Error() }
func (z *zlogger) Fatal() *zerolog.Event { return z.log.Fatal() }

func (z *zlogger) With() zerolog.Context { return z.log.With() }

func (z *zlogger) WithComponent(name string) Logger {
	return &zlogger{log: z.log.With().Str("component", name).Logger()}
}

func (z *zlogger) WithFields(fields map[string]interface{}) Logger {
	ctx := z.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	return &zlogger{log: ctx.Logger()}
}
