// Package logger configures the zerolog logger used by the host commands.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	once sync.Once
	Log  zerolog.Logger
)

func configure(out io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.SetGlobalLevel(level)
	Log = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}).
		With().Timestamp().Logger()
}

// Get returns the process logger, writing to stdout at level on first use.
func Get(level zerolog.Level) *zerolog.Logger {
	once.Do(func() { configure(os.Stdout, level) })
	return &Log
}

// ParseLevel accepts zerolog level names and falls back to info.
func ParseLevel(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(s)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
