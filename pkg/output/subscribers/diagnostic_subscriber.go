// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netwatch/netwatch/pkg/output"
)

// DiagnosticSubscriber writes diagnostic events up to a verbosity level.
//
// Verbosity levels:
//   - LevelVerbose (1): -v
//   - LevelDebug (2): -vv
//   - LevelTrace (3): -vvv
type DiagnosticSubscriber struct {
	level  output.OutputLevel
	writer io.Writer
	styles diagStyles
}

type diagStyles struct {
	failed  lipgloss.Style
	done    lipgloss.Style
	generic lipgloss.Style
	meta    lipgloss.Style
}

// NewDiagnosticSubscriber creates a DiagnosticSubscriber. Styling follows the
// writer: non-terminal writers get plain text.
func NewDiagnosticSubscriber(level output.OutputLevel, writer io.Writer) *DiagnosticSubscriber {
	re := lipgloss.NewRenderer(writer)
	return &DiagnosticSubscriber{
		level:  level,
		writer: writer,
		styles: diagStyles{
			failed:  re.NewStyle().Foreground(lipgloss.Color("9")),
			done:    re.NewStyle().Foreground(lipgloss.Color("10")),
			generic: re.NewStyle().Foreground(lipgloss.Color("244")),
			meta:    re.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

// Name returns the subscriber identifier.
func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts diagnostic events at or below the subscriber level.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	if event.Type != output.EventDiag {
		return false
	}
	return event.Level > output.LevelNormal && event.Level <= s.level
}

// Handle renders one diagnostic line.
func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	line := fmt.Sprintf("%s %s %s", getLevelPrefix(event.Level), event.Timestamp.Format("15:04:05"), event.Message)

	style := s.styles.generic
	switch {
	case strings.Contains(event.Message, " failed"):
		style = s.styles.failed
	case strings.Contains(event.Message, " completed"):
		style = s.styles.done
	}
	fmt.Fprintln(s.writer, style.Render(line))

	if len(event.Metadata) > 0 {
		fmt.Fprintln(s.writer, s.styles.meta.Render("    "+formatMetadata(event.Metadata)))
	}
}

func formatMetadata(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, meta[k])
	}
	return strings.Join(parts, " ")
}

func getLevelPrefix(level output.OutputLevel) string {
	switch level {
	case output.LevelVerbose:
		return "[VERBOSE]"
	case output.LevelDebug:
		return "[DEBUG]"
	case output.LevelTrace:
		return "[TRACE]"
	default:
		return "[INFO]"
	}
}
