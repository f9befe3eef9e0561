// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package httpx

import (
	"net/http"

	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/metrics"
	"github.com/netwatch/netwatch/pkg/server/api"
	v1 "github.com/netwatch/netwatch/pkg/server/api/v1"
)

// NewRouter mounts health, metrics and API endpoints. /metrics is only
// mounted when cfg.Metrics is set and reg is non-nil.
func NewRouter(cfg config.ServerConfig, deps *api.Deps, reg *metrics.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	if cfg.Metrics && reg != nil {
		mux.Handle("GET /metrics", reg.Handler())
	}

	mux.HandleFunc("GET /api/v1/report", v1.GetReportHandler(deps))
	mux.HandleFunc("POST /api/v1/analyze", v1.AnalyzeHandler(deps))
	mux.HandleFunc("GET /api/v1/snapshots", v1.ListSnapshotsHandler(deps))
	mux.HandleFunc("GET /api/v1/snapshots/{id}", v1.GetSnapshotHandler(deps))
	mux.HandleFunc("GET /api/v1/ports/{port}", v1.PortAdviceHandler(deps))
	mux.HandleFunc("GET /api/v1/rules", v1.RulesHandler(deps))

	return mux
}

// HealthzHandler responds with 200 OK while the process is alive. It does
// not check the collector; use /readyz for that.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
