package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger for the configured level and format.
// Invalid levels fall back to info.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if c.LogFormat == LogFormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "tripcarbon").Logger()
}
