// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"

	"github.com/netwatch/netwatch/pkg/output"
	"github.com/netwatch/netwatch/pkg/render"
)

// ReportSubscriber prints the full report for EventReport and a one-line
// delta for EventDelta. Errors are printed as a single line so a watch loop
// keeps going.
type ReportSubscriber struct {
	writer io.Writer
	opts   render.Options
}

// NewReportSubscriber creates a ReportSubscriber writing to w.
func NewReportSubscriber(w io.Writer, opts render.Options) *ReportSubscriber {
	return &ReportSubscriber{writer: w, opts: opts}
}

func (s *ReportSubscriber) Name() string { return "report-subscriber" }

func (s *ReportSubscriber) ShouldHandle(event output.OutputEvent) bool {
	switch event.Type {
	case output.EventReport, output.EventDelta:
		return event.Report != nil
	case output.EventError:
		return true
	}
	return false
}

func (s *ReportSubscriber) Handle(event output.OutputEvent) {
	ts := event.Timestamp.Format("15:04:05")
	switch event.Type {
	case output.EventReport:
		_ = render.Text(s.writer, *event.Report, s.opts)
	case output.EventDelta:
		if event.Previous == nil {
			fmt.Fprintf(s.writer, "[%s] %s\n", ts, render.Compact(*event.Report))
			return
		}
		fmt.Fprintf(s.writer, "[%s] %s\n", ts, render.Delta(*event.Previous, *event.Report))
	case output.EventError:
		msg := event.Message
		if event.Err != nil {
			msg = event.Err.Error()
		}
		fmt.Fprintf(s.writer, "[%s] error: %s\n", ts, msg)
	}
}
