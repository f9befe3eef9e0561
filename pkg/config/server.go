// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration. The server
// binds to loopback unless told otherwise.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1",
		Port:            8642,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		CollectInterval: 30 * time.Second,
		SnapshotLimit:   20,
		Metrics:         true,
	}
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
//
// Flags are namespaced under 'server.' to avoid conflicts with global flags.
// Example: --server.addr, --server.port
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Duration("server.collect_interval", defaults.CollectInterval, "Time between background snapshots")
	flags.Int("server.snapshot_limit", defaults.SnapshotLimit, "Snapshots kept in memory")
	flags.Bool("server.metrics", defaults.Metrics, "Expose Prometheus metrics on /metrics")
}
