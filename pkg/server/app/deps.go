// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package app

import (
	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/metrics"
	"github.com/netwatch/netwatch/pkg/runner"
)

// Deps holds dependencies for the server application.
type Deps struct {
	// Runner collects and analyzes listings for snapshots. Its engine also
	// serves the analyze, ports and rules endpoints.
	Runner *runner.Service

	// Metrics is optional; nil disables /metrics and request metrics.
	Metrics *metrics.Registry

	Logger zerolog.Logger
}
