// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output dispatches reports, watch deltas and diagnostics to the
// terminal subscribers that render them.
package output

import (
	"fmt"
	"time"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/runner"
)

// EventType classifies an OutputEvent.
type EventType string

const (
	EventReport EventType = "report"
	EventDelta  EventType = "delta"
	EventDiag   EventType = "diag"
	EventError  EventType = "error"
)

// OutputLevel is the verbosity an event needs before it is shown.
type OutputLevel int

const (
	LevelNormal OutputLevel = iota
	LevelVerbose
	LevelDebug
	LevelTrace
)

// LevelFromVerbosity maps a -v count to an OutputLevel.
func LevelFromVerbosity(count int) OutputLevel {
	switch {
	case count <= 0:
		return LevelNormal
	case count >= int(LevelTrace):
		return LevelTrace
	default:
		return OutputLevel(count)
	}
}

// OutputEvent is one item on the stream.
type OutputEvent struct {
	Type      EventType
	Level     OutputLevel
	Message   string
	Timestamp time.Time
	Metadata  map[string]any

	// Report is set for EventReport and EventDelta. Previous is set for
	// EventDelta when an earlier report exists.
	Report   *analysis.SecurityReport
	Previous *analysis.SecurityReport
	Err      error
}

// Diag builds a diagnostic event.
func Diag(level OutputLevel, msg string, meta map[string]any) OutputEvent {
	return OutputEvent{Type: EventDiag, Level: level, Message: msg, Timestamp: time.Now(), Metadata: meta}
}

// ProgressAdapter forwards runner progress onto a stream as diagnostics.
// Collection steps are verbose; parse and analyze details are debug.
type ProgressAdapter struct {
	Stream *OutputEventStream
}

// OnEvent implements runner.ProgressSink.
func (a ProgressAdapter) OnEvent(ev runner.ProgressEvent) {
	if a.Stream == nil {
		return
	}
	level := LevelDebug
	if ev.Phase == runner.PhaseCollect {
		level = LevelVerbose
	}
	msg := fmt.Sprintf("%s %s", ev.Phase, ev.Status)
	if ev.Message != "" {
		msg += ": " + ev.Message
	}
	a.Stream.Emit(OutputEvent{
		Type:      EventDiag,
		Level:     level,
		Message:   msg,
		Timestamp: ev.Timestamp,
		Metadata:  map[string]any{"source": ev.Source},
	})
}
