// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package api

import (
	"context"
	"sync/atomic"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
)

// Deps holds dependencies for API handlers.
type Deps struct {
	// Engine analyzes request bodies and answers port and rules queries.
	Engine *analysis.Engine

	// Snapshots holds the collected reports.
	Snapshots *snapshot.Store

	// Collector takes a snapshot on demand when none exists yet. Optional.
	Collector Collector

	// Ready flag for readiness check.
	Ready *atomic.Bool

	Config Config
}

// Collector takes and stores one snapshot.
type Collector interface {
	Collect(ctx context.Context, trigger string) (snapshot.Snapshot, error)
}
