// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/server/api"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
)

// TriggerAPI marks snapshots taken because a client asked for a report
// before the collector produced one.
const TriggerAPI = "api"

// handlerContext applies the configured handler timeout unless the request
// already carries a deadline.
func handlerContext(r *http.Request, cfg api.Config) (context.Context, context.CancelFunc) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); ok || cfg.HandlerTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cfg.HandlerTimeout)
}

// GetReportHandler handles GET /api/v1/report.
//
// Returns the newest snapshot. When nothing has been collected yet and a
// collector is configured, one is taken on demand.
func GetReportHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := deps.Snapshots.Latest()
		if !ok {
			if deps.Collector == nil {
				api.WriteError(w, r, fmt.Errorf("%w: no snapshot collected yet", analysis.ErrNoData))
				return
			}
			ctx, cancel := handlerContext(r, deps.Config)
			defer cancel()

			var err error
			snap, err = deps.Collector.Collect(ctx, TriggerAPI)
			if err != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					api.WriteJSONError(w, http.StatusGatewayTimeout, "Gateway Timeout", "collection did not finish in time")
					return
				}
				api.WriteError(w, r, err)
				return
			}
		}
		api.WriteJSON(w, http.StatusOK, snap)
	}
}

// AnalyzeResponse is returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	AnalyzedAt time.Time               `json:"analyzed_at"`
	Bytes      int                     `json:"bytes"`
	Report     analysis.SecurityReport `json:"report"`
}

// AnalyzeHandler handles POST /api/v1/analyze.
//
// The request body is raw `lsof -i -n -P` output. An empty body yields a
// clean report, like an empty listing on the CLI.
func AnalyzeHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, deps.Config.MaxBodyBytes)
		data, err := io.ReadAll(body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				api.WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					fmt.Sprintf("listing exceeds %d bytes", tooLarge.Limit))
				return
			}
			api.WriteError(w, r, fmt.Errorf("%w: read body: %v", analysis.ErrInvalidInput, err))
			return
		}

		api.WriteJSON(w, http.StatusOK, AnalyzeResponse{
			AnalyzedAt: time.Now().UTC(),
			Bytes:      len(data),
			Report:     deps.Engine.Analyze(string(data)),
		})
	}
}

// ListSnapshotsResponse is returned by GET /api/v1/snapshots.
type ListSnapshotsResponse struct {
	Snapshots []snapshot.Summary `json:"snapshots"`
	Count     int                `json:"count"`
}

// ListSnapshotsHandler handles GET /api/v1/snapshots?limit=N.
func ListSnapshotsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := ParseListSnapshotsQuery(r)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		list := deps.Snapshots.List(q.Limit)
		api.WriteJSON(w, http.StatusOK, ListSnapshotsResponse{Snapshots: list, Count: len(list)})
	}
}

// GetSnapshotHandler handles GET /api/v1/snapshots/{id}.
func GetSnapshotHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Snapshots.Get(r.PathValue("id"))
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, snap)
	}
}

// PortAdviceHandler handles GET /api/v1/ports/{port}.
func PortAdviceHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		port, err := ParsePort(r.PathValue("port"))
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		adv, err := deps.Engine.PortAdvice(port)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, adv)
	}
}

// RulesHandler handles GET /api/v1/rules and returns the effective rule set.
func RulesHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, deps.Engine.Rules())
	}
}
