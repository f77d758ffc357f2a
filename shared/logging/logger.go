// Package logging wraps github.com/rs/zerolog behind the service/env-tagged,
// map-of-fields call shape the rest of this codebase is written against, so
// every service logs structured JSON without each call site touching
// zerolog's builder API directly.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is a service/env-scoped structured logger.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger that writes structured JSON to stdout, tagged with
// service and env, at the level named by the LOG_LEVEL environment
// variable (defaulting to info).
func New(service, env string) *Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("env", env).
		Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(zerolog.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(zerolog.ErrorLevel, msg, fields) }

func (l *Logger) log(level zerolog.Level, msg string, fields map[string]any) {
	ev := l.zl.WithLevel(level)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

// Zerolog exposes the underlying zerolog.Logger for components (e.g.
// shared/outbox.Relay) that were written directly against zerolog's
// builder API.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }
