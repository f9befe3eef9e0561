// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package runner executes one collect-and-analyze pass: it pulls a listing
// from a source, parses it, and hands the records to the analysis engine.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/metrics"
	"github.com/netwatch/netwatch/pkg/source"
)

// Status values reported in Result and ProgressEvent.
const (
	StatusStart     = "start"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Phases of a run.
const (
	PhaseCollect = "collect"
	PhaseParse   = "parse"
	PhaseAnalyze = "analyze"
)

// ProgressSink receives progress notifications.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressEvent describes one step of a run.
type ProgressEvent struct {
	Phase     string
	Source    string
	Status    string
	Message   string
	Timestamp time.Time
}

// Result is the outcome of one run.
type Result struct {
	Status    string                  `json:"status"`
	Source    string                  `json:"source"`
	StartedAt time.Time               `json:"started_at"`
	Duration  time.Duration           `json:"duration"`
	Report    analysis.SecurityReport `json:"report"`
	// LineErrors holds the first few unparseable lines for diagnostics.
	LineErrors []listing.LineError `json:"line_errors,omitempty"`
}

// maxLineErrors bounds Result.LineErrors.
const maxLineErrors = 20

// Service runs collections against one source and engine.
type Service struct {
	source       source.Source
	engine       *analysis.Engine
	metrics      *metrics.Registry
	progressSink ProgressSink
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService builds a Service.
func NewService(src source.Source, engine *analysis.Engine, logger zerolog.Logger) *Service {
	return &Service{
		source: src,
		engine: engine,
		logger: logger.With().Str("component", "runner").Logger(),
		now:    time.Now,
	}
}

// WithProgressSink attaches a sink to receive progress notifications.
func (s *Service) WithProgressSink(sink ProgressSink) *Service {
	s.progressSink = sink
	return s
}

// WithMetrics records collections and report gauges in reg.
func (s *Service) WithMetrics(reg *metrics.Registry) *Service {
	s.metrics = reg
	return s
}

// Engine returns the analysis engine used by the service.
func (s *Service) Engine() *analysis.Engine {
	return s.engine
}

// SourceName returns the name of the configured source.
func (s *Service) SourceName() string {
	return s.source.Name()
}

// Run collects one listing and analyzes it. An empty listing is a valid
// clean result; only a failure to obtain any listing is an error.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	name := s.source.Name()
	start := s.now()

	s.emit(PhaseCollect, name, StatusStart, "")
	text, err := s.source.Collect(ctx)
	if err != nil {
		s.emit(PhaseCollect, name, StatusFailed, err.Error())
		if s.metrics != nil {
			s.metrics.RecordCollection(name, err, s.now().Sub(start), start)
		}
		s.logger.Debug().Err(err).Str("source", name).Msg("collection failed")
		return &Result{Status: StatusFailed, Source: name, StartedAt: start, Duration: s.now().Sub(start)},
			fmt.Errorf("collect from %s: %w", name, err)
	}
	s.emit(PhaseCollect, name, StatusCompleted, fmt.Sprintf("bytes=%d", len(text)))

	parsed := listing.Parse(text)
	s.emit(PhaseParse, name, StatusCompleted,
		fmt.Sprintf("records=%d failures=%d skipped=%d", len(parsed.Records), parsed.Failures, parsed.Skipped))
	if parsed.Failures > 0 {
		s.logger.Debug().Int("failures", parsed.Failures).Msg("some listing lines could not be parsed")
	}

	report := s.engine.AnalyzeResult(parsed)
	s.emit(PhaseAnalyze, name, StatusCompleted, fmt.Sprintf("score=%d findings=%d", report.Score, len(report.Findings)))

	res := &Result{
		Status:    StatusCompleted,
		Source:    name,
		StartedAt: start,
		Duration:  s.now().Sub(start),
		Report:    report,
	}
	if n := len(parsed.Errors); n > 0 {
		if n > maxLineErrors {
			n = maxLineErrors
		}
		res.LineErrors = append([]listing.LineError(nil), parsed.Errors[:n]...)
	}

	if s.metrics != nil {
		s.metrics.RecordCollection(name, nil, res.Duration, start)
		s.metrics.ObserveReport(report)
	}
	return res, nil
}

func (s *Service) emit(phase, src, status, msg string) {
	if s.progressSink == nil {
		return
	}
	s.progressSink.OnEvent(ProgressEvent{
		Phase:     phase,
		Source:    src,
		Status:    status,
		Message:   msg,
		Timestamp: s.now(),
	})
}
