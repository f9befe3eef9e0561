// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/bind"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/appctx"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/logging"
	"github.com/netwatch/netwatch/pkg/metrics"
	serversvc "github.com/netwatch/netwatch/pkg/server"
	"github.com/netwatch/netwatch/pkg/server/app"
	"github.com/netwatch/netwatch/pkg/source"
	"github.com/netwatch/netwatch/pkg/version"
)

// newStartServerCommand creates the 'netwatch server start' command.
//
// The server hosts in a single runtime:
//   - the REST API under /api/v1 (analyze, snapshots, ports, rules)
//   - health and readiness endpoints (/healthz, /readyz)
//   - Prometheus metrics on /metrics unless --server.metrics=false
//   - a background collector storing a snapshot every collect interval
//
// It runs until interrupted (SIGINT/SIGTERM), then drains in-flight
// requests and stops the collector.
func newStartServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the NetWatch server",
		Long: `Start the NetWatch HTTP server.

The server analyzes listings posted to /api/v1/analyze and collects a
snapshot of this host's socket table in the background. Snapshots are kept
in memory and served from /api/v1/snapshots.

The server binds to 127.0.0.1 by default. Exposing it on all interfaces
publishes the host's socket table to anyone who can reach the port.`,
		Example: `  netwatch server start
  netwatch server start --port 9000
  netwatch server start --listen-addr 0.0.0.0 --server.collect_interval 1m
  netwatch server start --source native --server.metrics=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			base := config.DefaultConfig()
			cfgMgr, hasConfig := appctx.Config(cmd.Context())
			if hasConfig {
				base = cfgMgr.Get()
			}

			srvCfg, err := bind.BindServerOptions(cmd, base.Server)
			if err != nil {
				return formatter.PrintTotalFailureSummary("start server", err)
			}

			engine, hasEngine := appctx.Engine(cmd.Context())
			if !hasConfig || !hasEngine {
				return formatter.PrintTotalFailureSummary("start server", serversvc.ErrConfigUnavailable)
			}

			opts := bind.SourceOptions(base.Analysis, nil, nil)
			if opts.Kind == source.KindFile && opts.Input == source.StdinPath {
				wrapped := serversvc.WrapInvalidConfig(errors.New("standard input cannot back a server; use a file, lsof or native source"))
				return formatter.PrintTotalFailureSummary("start server", wrapped)
			}

			svc, err := bind.NewRunner(engine, opts)
			if err != nil {
				wrapped := serversvc.WrapAppInit(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped)
			}

			var reg *metrics.Registry
			if srvCfg.Metrics {
				reg = metrics.DefaultRegistry()
				reg.SetBuildInfo(version.Version, version.Commit)
				svc.WithMetrics(reg)
			}

			logger := logging.Component("server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverApp, err := app.New(ctx, srvCfg, &app.Deps{
				Runner:  svc,
				Metrics: reg,
				Logger:  logger,
			})
			if err != nil {
				wrapped := serversvc.WrapAppInit(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped)
			}

			_ = formatter.PrintSummary(fmt.Sprintf("Starting NetWatch server on http://%s (source: %s, Ctrl+C to stop)",
				net.JoinHostPort(srvCfg.Addr, strconv.Itoa(srvCfg.Port)), svc.SourceName()))

			if err := serverApp.Run(ctx); err != nil {
				wrapped := serversvc.WrapRuntime(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped)
			}
			return nil
		},
	}

	// Failures are reported through the formatter summary.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config.BindServerFlags(cmd.Flags())
	config.BindAnalysisFlags(cmd.Flags())
	cmd.Flags().String("listen-addr", config.DefaultServerConfig().Addr, "Server listen address (shortcut for --server.addr)")
	cmd.Flags().Int("port", config.DefaultServerConfig().Port, "Server listen port (shortcut for --server.port)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}
