// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.CollectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netwatch_collections_total",
			Help: "Socket listing collections by source and result",
		},
		[]string{"source", "result"}, // ok, error
	)

	r.CollectionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netwatch_collection_duration_seconds",
			Help:    "Time to collect and analyze one socket listing",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"source"},
	)

	r.LastCollectionTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netwatch_last_collection_timestamp_seconds",
			Help: "Unix time of the last successful collection",
		},
	)

	r.ParseFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netwatch_parse_failures_total",
			Help: "Listing lines that could not be parsed",
		},
	)

	r.SecurityScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netwatch_security_score",
			Help: "Security score of the latest snapshot (0-100)",
		},
	)

	r.Findings = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netwatch_findings",
			Help: "Findings in the latest snapshot by risk tier",
		},
		[]string{"tier"},
	)

	r.Connections = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netwatch_connections",
			Help: "Connection records in the latest snapshot by state",
		},
		[]string{"state"}, // listening, established, closed, other
	)

	r.ExternalConnections = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netwatch_external_connections",
			Help: "Established connections to non-private addresses",
		},
	)

	r.Snapshots = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netwatch_snapshots",
			Help: "Snapshots held in memory",
		},
	)

	r.BuildInfo = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netwatch_build_info",
			Help: "Build information (always 1)",
		},
		[]string{"version", "commit"},
	)
}
