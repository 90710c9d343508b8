// Package logging builds the zerolog logger shared by the server and CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the given level.  format "json"
// emits one JSON object per line; anything else uses the human console writer.
// A nil writer means stderr.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Nop is a logger that discards everything.  Tests use it.
func Nop() zerolog.Logger { return zerolog.Nop() }
