// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package app wires the HTTP server, snapshot store and background
// collector of `netwatch server start`.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/server/api"
	"github.com/netwatch/netwatch/pkg/server/httpx"
	"github.com/netwatch/netwatch/pkg/server/jobs"
	"github.com/netwatch/netwatch/pkg/server/snapshot"
)

// ShutdownTimeout bounds graceful shutdown.
var ShutdownTimeout = 30 * time.Second

// App orchestrates the server runtime components.
type App struct {
	HTTP      *http.Server
	Jobs      jobs.Manager
	Snapshots *snapshot.Store
	Collector *Collector
	Ready     *atomic.Bool
	Config    config.ServerConfig
	Deps      *Deps

	mu   sync.Mutex
	addr net.Addr
}

// New creates and configures a new server application.
func New(ctx context.Context, cfg config.ServerConfig, deps *Deps) (*App, error) {
	if deps == nil || deps.Runner == nil {
		return nil, errors.New("server requires an analysis runner")
	}
	deps.Logger.Debug().Msg("Initializing server application")

	store := snapshot.NewStore(cfg.SnapshotLimit)
	collector := NewCollector(deps.Runner, store, deps.Logger)
	ready := &atomic.Bool{}

	apiCfg := api.DefaultConfig()
	if cfg.WriteTimeout > 0 && cfg.WriteTimeout < apiCfg.HandlerTimeout {
		apiCfg.HandlerTimeout = cfg.WriteTimeout
	}
	apiDeps := &api.Deps{
		Engine:    deps.Runner.Engine(),
		Snapshots: store,
		Collector: collector,
		Ready:     ready,
		Config:    apiCfg,
	}

	router := httpx.NewRouter(cfg, apiDeps, deps.Metrics)
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port)),
		Handler:      httpx.Chain(router, deps.Metrics),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		HTTP:      httpServer,
		Jobs:      jobs.NewMemoryManager(1, 1, deps.Logger),
		Snapshots: store,
		Collector: collector,
		Ready:     ready,
		Config:    cfg,
		Deps:      deps,
	}, nil
}

// Addr returns the bound listen address once Run has started listening.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run starts the server and blocks until ctx is canceled or the listener
// fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.HTTP.Addr, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	a.Deps.Logger.Info().
		Str("addr", ln.Addr().String()).
		Str("source", a.Deps.Runner.SourceName()).
		Dur("collect_interval", a.Config.CollectInterval).
		Bool("metrics", a.Config.Metrics && a.Deps.Metrics != nil).
		Msg("Starting NetWatch server")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	jobsCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	if err := a.Jobs.Start(jobsCtx); err != nil {
		_ = a.HTTP.Close()
		return fmt.Errorf("start jobs: %w", err)
	}
	if a.Config.CollectInterval > 0 {
		go a.Collector.Schedule(jobsCtx, a.Jobs, a.Config.CollectInterval)
	}

	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		a.Ready.Store(false)
		cancelJobs()
		_ = a.Jobs.Stop(context.Background())
		return err
	}

	cancelJobs()
	return a.shutdown()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	a.Ready.Store(false)

	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	a.Deps.Logger.Debug().Msg("HTTP server stopped")

	if err := a.Jobs.Stop(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Jobs shutdown failed")
		return err
	}

	a.Deps.Logger.Info().Int("snapshots", a.Snapshots.Len()).Msg("Server shutdown complete")
	return nil
}
