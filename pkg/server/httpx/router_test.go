// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/metrics"
	"github.com/netwatch/netwatch/pkg/rules"
	"github.com/netwatch/netwatch/pkg/server/api"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
)

func newTestDeps(t *testing.T) *api.Deps {
	t.Helper()
	e, err := analysis.NewEngine(rules.Default())
	require.NoError(t, err)
	return &api.Deps{
		Engine:    e,
		Snapshots: snapshot.NewStore(3),
		Ready:     &atomic.Bool{},
		Config:    api.DefaultConfig(),
	}
}

func TestNewRouter_Routes(t *testing.T) {
	deps := newTestDeps(t)
	deps.Ready.Store(true)
	deps.Snapshots.Add(snapshot.Snapshot{Source: "lsof"})
	router := NewRouter(config.DefaultServerConfig(), deps, metrics.NewRegistry())

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/report", "", http.StatusOK},
		{http.MethodPost, "/api/v1/analyze", "sshd 1 root 3u IPv4 0x1 0t0 TCP 127.0.0.1:22 (LISTEN)\n", http.StatusOK},
		{http.MethodGet, "/api/v1/snapshots", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ports/22", "", http.StatusOK},
		{http.MethodGet, "/api/v1/rules", "", http.StatusOK},
		{http.MethodGet, "/api/v1/analyze", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
		})
	}
}

func TestNewRouter_MetricsDisabled(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Metrics = false
	router := NewRouter(cfg, newTestDeps(t), metrics.NewRegistry())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzHandler(t *testing.T) {
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		HealthzHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "OK", w.Body.String())
	}
}
