package config

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger returns a structured logger writing to stderr with the given
// prefix. The level comes from LOG_LEVEL (debug, info, warn, error) and
// defaults to info.
func NewLogger(prefix string) *log.Logger {
	return NewLoggerTo(os.Stderr, prefix)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, prefix string) *log.Logger {
	level, err := log.ParseLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
}
