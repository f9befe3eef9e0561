// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package logging configures zerolog for the netwatch binaries.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log formats accepted by Configure.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu sync.Mutex
	// logWriter is where the global logger writes. Reports go to stdout, so
	// logs default to stderr.
	logWriter io.Writer = os.Stderr
)

// stdLogWriter forwards output of the standard library logger (used by
// net/http among others) to zerolog at debug level.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")
	w.logger.Debug().Str("origin", "stdlog").Msg(message)
	return len(p), nil
}

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	zerolog.TimeFieldFormat = time.RFC3339
}

// Configure sets up the global logger with the given level and format. An
// empty level means error.
func Configure(levelStr, format string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}

	mu.Lock()
	w := logWriter
	mu.Unlock()

	switch strings.ToLower(format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatConsole, FormatJSON)
	}

	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: WithLevelOverride(log.Logger, zerolog.DebugLevel)})
	return nil
}

// ConfigureGlobal sets the global level and resets the global logger to the
// console writer.
func ConfigureGlobal(level zerolog.Level) {
	_ = Configure(level.String(), FormatConsole)
}

// ParseLevel converts a level name to a zerolog level. An empty name means
// error.
func ParseLevel(levelString string) (zerolog.Level, error) {
	if levelString == "" {
		return zerolog.ErrorLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		return zerolog.ErrorLevel, fmt.Errorf("invalid log level %q: %w", levelString, err)
	}
	return level, nil
}

// VerbosityLevel maps a repeated -v flag to a level: -v info, -vv debug,
// -vvv trace. Zero keeps the configured level.
func VerbosityLevel(count int, configured string) string {
	switch {
	case count >= 3:
		return zerolog.TraceLevel.String()
	case count == 2:
		return zerolog.DebugLevel.String()
	case count == 1:
		return zerolog.InfoLevel.String()
	default:
		return configured
	}
}

// SetLogWriter replaces the writer used by the next Configure call.
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}

// NewLogger returns a logger tagged with a component field that writes to
// the global writer.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	mu.Lock()
	w := logWriter
	mu.Unlock()
	return NewLoggerWithWriter(component, level, w)
}

// NewLoggerWithWriter returns a JSON logger tagged with a component field.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// Component derives a child of the global logger with a component field.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// LevelOverrideHook assigns a level to events logged without one.
type LevelOverrideHook struct {
	minSeverity zerolog.Level
	targetLevel zerolog.Level
}

// NewLevelOverrideHook creates a hook that discards everything when the
// logger's minimum is above targetLevel.
func NewLevelOverrideHook(minSeverity, targetLevel zerolog.Level) *LevelOverrideHook {
	return &LevelOverrideHook{
		minSeverity: minSeverity,
		targetLevel: targetLevel,
	}
}

// Run implements zerolog.Hook.
func (h LevelOverrideHook) Run(e *zerolog.Event, currentLevel zerolog.Level, _ string) {
	if h.minSeverity > h.targetLevel {
		e.Discard()
		return
	}
	if currentLevel == zerolog.NoLevel {
		e.Str("level", h.targetLevel.String())
	}
}

// WithLevelOverride attaches a LevelOverrideHook to logger.
func WithLevelOverride(logger zerolog.Logger, targetLevel zerolog.Level) zerolog.Logger {
	return logger.Hook(NewLevelOverrideHook(logger.GetLevel(), targetLevel))
}
