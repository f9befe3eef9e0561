// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package metrics

import (
	"time"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// Collection results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCollection records one collection attempt.
func (r *Registry) RecordCollection(source string, err error, duration time.Duration, at time.Time) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.CollectionsTotal.WithLabelValues(source, result).Inc()
	r.CollectionDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		r.LastCollectionTimestamp.Set(float64(at.Unix()))
	}
}

// ObserveReport publishes the posture gauges of the latest report.
func (r *Registry) ObserveReport(rep analysis.SecurityReport) {
	r.SecurityScore.Set(float64(rep.Score))

	tc := rep.TierCounts
	r.Findings.WithLabelValues(analysis.TierCritical.String()).Set(float64(tc.Critical))
	r.Findings.WithLabelValues(analysis.TierHigh.String()).Set(float64(tc.High))
	r.Findings.WithLabelValues(analysis.TierMedium.String()).Set(float64(tc.Medium))
	r.Findings.WithLabelValues(analysis.TierLow.String()).Set(float64(tc.Low))

	s := rep.Summary
	r.Connections.WithLabelValues("listening").Set(float64(s.Listening))
	r.Connections.WithLabelValues("established").Set(float64(s.Established))
	r.Connections.WithLabelValues("closed").Set(float64(s.Closed))
	r.Connections.WithLabelValues("other").Set(float64(s.Other))

	r.ExternalConnections.Set(float64(len(rep.ExternalConnections)))
	r.ParseFailuresTotal.Add(float64(s.ParseFailures))
}

// SetBuildInfo publishes the running version.
func (r *Registry) SetBuildInfo(version, commit string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version, commit).Set(1)
}
