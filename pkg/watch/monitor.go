// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package watch re-runs the analysis on a fixed interval, and optionally
// whenever a listing file changes, producing a stream of snapshots.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/runner"
)

// Trigger says why a snapshot was taken.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerInterval Trigger = "interval"
	TriggerFile     Trigger = "file"
)

// MinInterval is the shortest accepted refresh interval.
const MinInterval = 100 * time.Millisecond

// Runner performs one collect-and-analyze pass.
type Runner interface {
	Run(ctx context.Context) (*runner.Result, error)
}

// Snapshot is one pass of the monitor. Exactly one of Result and Err is set.
type Snapshot struct {
	Seq     int
	At      time.Time
	Trigger Trigger
	Result  *runner.Result
	Err     error
}

// Report returns the snapshot's report, or nil for a failed pass.
func (s Snapshot) Report() *analysis.SecurityReport {
	if s.Result == nil {
		return nil
	}
	return &s.Result.Report
}

// Monitor schedules repeated runs.
type Monitor struct {
	runner    Runner
	interval  time.Duration
	watchPath string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMonitor creates a Monitor running r every interval.
func NewMonitor(r Runner, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		runner:   r,
		interval: interval,
		logger:   logger.With().Str("component", "watch").Logger(),
		now:      time.Now,
	}
}

// WatchFile additionally triggers a run whenever path is written.
func (m *Monitor) WatchFile(path string) *Monitor {
	m.watchPath = path
	return m
}

// Run takes a snapshot immediately and then on every trigger until ctx is
// canceled, passing each to handle. Failed passes are delivered as
// snapshots with Err set and do not stop the loop. Run returns nil when ctx
// is canceled.
func (m *Monitor) Run(ctx context.Context, handle func(Snapshot)) error {
	if m.interval < MinInterval {
		return analysis.WithErrorCode(
			fmt.Errorf("%w: watch interval %s is below %s", analysis.ErrInvalidInput, m.interval, MinInterval),
			analysis.ErrorCodeInvalidInput)
	}

	fileEvents := make(chan struct{}, 1)
	if m.watchPath != "" {
		fw, err := NewFileWatcher(m.watchPath, m.logger)
		if err != nil {
			return fmt.Errorf("watch %s: %w", m.watchPath, err)
		}
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := fw.Start(watchCtx, func() {
				select {
				case fileEvents <- struct{}{}:
				default:
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn().Err(err).Msg("file watcher stopped")
			}
		}()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	seq := 0
	take := func(trigger Trigger) {
		seq++
		snap := Snapshot{Seq: seq, At: m.now(), Trigger: trigger}
		res, err := m.runner.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn().Err(err).Int("seq", seq).Msg("analysis pass failed")
			snap.Err = err
		} else {
			snap.Result = res
		}
		handle(snap)
	}

	take(TriggerStart)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			take(TriggerInterval)
		case <-fileEvents:
			take(TriggerFile)
		}
	}
}
