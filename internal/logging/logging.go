// Package logging builds the zerolog logger shared by the pricer commands.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. format "json" emits one JSON object
// per line; anything else uses the human-readable console writer. An
// unknown level falls back to info.
func New(level, format string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "pricer").Logger()
}
