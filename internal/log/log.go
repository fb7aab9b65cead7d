// Package log is a thin structured-logging facade over zerolog.
//
// All warning output required by the extraction pipeline (skipped files,
// unparseable dates, malformed lines) goes through this package so that the
// core stays free of any direct output dependency.
package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
)

func get() *zerolog.Logger {
	loggerOnce.Do(func() {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return &logger
}

// SetLevel adjusts the minimum level from a string: "debug", "info",
// "warn" or "error". Unknown values fall back to info.
func SetLevel(level string) {
	logger = get().Level(parseLevel(level))
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug(msg string, kv ...any) {
	emit(get().Debug(), msg, kv)
}

func Info(msg string, kv ...any) {
	emit(get().Info(), msg, kv)
}

// Warn records a recoverable condition (a skipped line or file, a date the
// delegate could not resolve). Warnings never abort a batch.
func Warn(msg string, kv ...any) {
	emit(get().Warn(), msg, kv)
}

func Error(msg string, err error, kv ...any) {
	emit(get().Error().Err(err), msg, kv)
}

// emit appends kv as key-value pairs; an odd trailing argument is ignored.
func emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
