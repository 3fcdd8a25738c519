package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component names used as the "component" field on every log line.
const (
	App         = "app"
	Attachments = "attachments"
	Config      = "config"
	Coordinator = "coordinator"
	Handler     = "handler"
	Playback    = "playback"
	Requests    = "requests"
	Speech      = "speech"
	Transport   = "transport"
)

// ParseLevel maps LOG_LEVEL style strings to zerolog levels, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Init configures the global logger. A nil writer means a console writer on stderr.
func Init(level string, w io.Writer) {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// For returns a sub-logger tagged with the given component.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
