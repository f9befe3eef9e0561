// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/server/jobs"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
	"github.com/netwatch/netwatch/pkg/watch"
)

// Collector takes snapshots with a watch.Runner and stores them.
type Collector struct {
	runner watch.Runner
	store  *snapshot.Store
	logger zerolog.Logger
}

// NewCollector creates a Collector.
func NewCollector(r watch.Runner, store *snapshot.Store, logger zerolog.Logger) *Collector {
	return &Collector{
		runner: r,
		store:  store,
		logger: logger.With().Str("component", "collector").Logger(),
	}
}

// Collect runs one pass and stores the result.
func (c *Collector) Collect(ctx context.Context, trigger string) (snapshot.Snapshot, error) {
	res, err := c.runner.Run(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	snap := c.store.Add(snapshot.Snapshot{
		Source:   res.Source,
		Trigger:  trigger,
		TakenAt:  res.StartedAt,
		Duration: res.Duration,
		Report:   res.Report,
	})
	c.logger.Debug().
		Str("id", snap.ID).
		Str("trigger", trigger).
		Int("score", snap.Report.Score).
		Msg("Snapshot stored")
	return snap, nil
}

// Schedule submits a collection job to mgr immediately and then every
// interval until ctx is canceled. A tick is skipped while the previous
// collection is still queued.
func (c *Collector) Schedule(ctx context.Context, mgr jobs.Manager, interval time.Duration) {
	submit := func(trigger string) {
		err := mgr.Submit(jobs.Job{
			ID:   uuid.NewString(),
			Type: "collect",
			Run: func(ctx context.Context) error {
				_, err := c.Collect(ctx, trigger)
				return err
			},
		})
		switch {
		case err == nil:
		case errors.Is(err, jobs.ErrQueueFull):
			c.logger.Debug().Msg("Previous collection still pending, skipping tick")
		default:
			c.logger.Warn().Err(err).Msg("Failed to schedule collection")
		}
	}

	submit(string(watch.TriggerStart))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			submit(string(watch.TriggerInterval))
		}
	}
}
