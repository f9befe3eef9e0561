// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/rules"
	"github.com/netwatch/netwatch/pkg/server/api"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
)

const redisListing = "redis-ser 812 root 6u IPv4 0x1 0t0 TCP *:6379 (LISTEN)\n"

type stubCollector struct {
	store *snapshot.Store
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubCollector) Collect(ctx context.Context, trigger string) (snapshot.Snapshot, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		}
	}
	if s.err != nil {
		return snapshot.Snapshot{}, s.err
	}
	return s.store.Add(snapshot.Snapshot{Source: "stub", Trigger: trigger, Report: analysis.SecurityReport{Score: 77}}), nil
}

func newDeps(t *testing.T) *api.Deps {
	t.Helper()
	e, err := analysis.NewEngine(rules.Default())
	require.NoError(t, err)
	return &api.Deps{
		Engine:    e,
		Snapshots: snapshot.NewStore(5),
		Ready:     &atomic.Bool{},
		Config:    api.DefaultConfig(),
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestReadyzHandler(t *testing.T) {
	ready := &atomic.Bool{}
	h := ReadyzHandler(ready)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready.Store(true)
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Ready", w.Body.String())

	w = httptest.NewRecorder()
	ReadyzHandler(nil)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetReportHandler_Latest(t *testing.T) {
	deps := newDeps(t)
	deps.Snapshots.Add(snapshot.Snapshot{Source: "lsof", Report: analysis.SecurityReport{Score: 60}})
	latest := deps.Snapshots.Add(snapshot.Snapshot{Source: "lsof", Report: analysis.SecurityReport{Score: 95}})

	w := httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[snapshot.Snapshot](t, w)
	require.Equal(t, latest.ID, got.ID)
	require.Equal(t, 95, got.Report.Score)
}

func TestGetReportHandler_Empty(t *testing.T) {
	deps := newDeps(t)

	w := httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[api.ErrorResponse](t, w)
	require.Contains(t, resp.Message, "no snapshot")
}

func TestGetReportHandler_CollectsOnDemand(t *testing.T) {
	deps := newDeps(t)
	col := &stubCollector{store: deps.Snapshots}
	deps.Collector = col

	w := httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[snapshot.Snapshot](t, w)
	require.Equal(t, TriggerAPI, got.Trigger)
	require.Equal(t, 77, got.Report.Score)

	w = httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int32(1), col.calls.Load(), "later requests reuse the stored snapshot")
}

func TestGetReportHandler_CollectorError(t *testing.T) {
	deps := newDeps(t)
	deps.Collector = &stubCollector{store: deps.Snapshots, err: fmt.Errorf("%w: lsof missing", analysis.ErrSourceUnavailable)}

	w := httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetReportHandler_Timeout(t *testing.T) {
	deps := newDeps(t)
	deps.Config.HandlerTimeout = 20 * time.Millisecond
	deps.Collector = &stubCollector{store: deps.Snapshots, delay: time.Second}

	w := httptest.NewRecorder()
	GetReportHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestAnalyzeHandler(t *testing.T) {
	deps := newDeps(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(redisListing))
	AnalyzeHandler(deps)(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[AnalyzeResponse](t, w)
	require.Equal(t, len(redisListing), resp.Bytes)
	require.Equal(t, 88, resp.Report.Score)
	require.Len(t, resp.Report.Findings, 1)
	require.Equal(t, analysis.TierCritical, resp.Report.Findings[0].Tier)
}

func TestAnalyzeHandler_EmptyBody(t *testing.T) {
	deps := newDeps(t)

	w := httptest.NewRecorder()
	AnalyzeHandler(deps)(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("")))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AnalyzeResponse](t, w)
	require.Equal(t, 100, resp.Report.Score)
	require.Equal(t, []string{analysis.NoIssuesMessage}, resp.Report.Recommendations)
}

func TestAnalyzeHandler_TooLarge(t *testing.T) {
	deps := newDeps(t)
	deps.Config.MaxBodyBytes = 10

	w := httptest.NewRecorder()
	AnalyzeHandler(deps)(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(redisListing)))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestListSnapshotsHandler(t *testing.T) {
	deps := newDeps(t)
	for i := 0; i < 4; i++ {
		deps.Snapshots.Add(snapshot.Snapshot{Report: analysis.SecurityReport{Score: 90 + i}})
	}

	w := httptest.NewRecorder()
	ListSnapshotsHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ListSnapshotsResponse](t, w)
	require.Equal(t, 2, resp.Count)
	require.Equal(t, 93, resp.Snapshots[0].Score)

	for _, bad := range []string{"0", "abc", "1001"} {
		w = httptest.NewRecorder()
		ListSnapshotsHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit="+bad, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, bad)
		resp := decode[api.ErrorResponse](t, w)
		require.Contains(t, resp.Message, "limit", bad)
	}
}

func TestGetSnapshotHandler(t *testing.T) {
	deps := newDeps(t)
	snap := deps.Snapshots.Add(snapshot.Snapshot{Source: "native"})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snapshots/{id}", GetSnapshotHandler(deps))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/"+snap.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "native", decode[snapshot.Snapshot](t, w).Source)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/00000000-0000-0000-0000-000000000000", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/nope", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortAdviceHandler(t *testing.T) {
	deps := newDeps(t)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ports/{port}", PortAdviceHandler(deps))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports/6379", nil))
	require.Equal(t, http.StatusOK, w.Code)
	adv := decode[analysis.PortAdvisory](t, w)
	require.Equal(t, 6379, adv.Port)
	require.Equal(t, "Redis", adv.Service)
	require.Equal(t, analysis.TierCritical, adv.Exposed)
	require.NotEmpty(t, adv.Recommendations)

	for _, bad := range []string{"70000", "ssh", "-1"} {
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports/"+bad, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRulesHandler(t *testing.T) {
	deps := newDeps(t)

	w := httptest.NewRecorder()
	RulesHandler(deps)(w, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Contains(t, got, "risk_rules")
	require.Contains(t, got, "suspicious_ports")
}

func TestValidationError(t *testing.T) {
	var nilErr *ValidationError
	require.Equal(t, "", nilErr.Error())
	require.Equal(t, "validation failed", (&ValidationError{}).Error())
	require.Equal(t, "port: invalid", (&ValidationError{Field: "port"}).Error())

	err := &ValidationError{Field: "limit", Reason: "bad"}
	require.True(t, errors.Is(err, analysis.ErrInvalidInput))
	require.Equal(t, http.StatusBadRequest, analysis.HTTPStatus(err))
}

func TestParseListSnapshotsQuery_Default(t *testing.T) {
	q, err := ParseListSnapshotsQuery(httptest.NewRequest(http.MethodGet, "/api/v1/snapshots", nil))
	require.NoError(t, err)
	require.Equal(t, DefaultSnapshotLimit, q.Limit)
}
