// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package bind

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/pkg/config"
	serversvc "github.com/netwatch/netwatch/pkg/server"
)

// BindServerOptions applies the server flags of cmd on top of base and
// validates the result. --listen-addr and --port win over their
// --server.* spellings.
func BindServerOptions(cmd *cobra.Command, base config.ServerConfig) (config.ServerConfig, error) {
	cfg := base
	flags := cmd.Flags()

	for _, name := range []string{"server.addr", "listen-addr"} {
		if flags.Changed(name) {
			cfg.Addr, _ = flags.GetString(name)
		}
	}
	for _, name := range []string{"server.port", "port"} {
		if flags.Changed(name) {
			cfg.Port, _ = flags.GetInt(name)
		}
	}
	if flags.Changed("server.metrics") {
		cfg.Metrics, _ = flags.GetBool("server.metrics")
	}
	if flags.Changed("server.collect_interval") {
		cfg.CollectInterval, _ = flags.GetDuration("server.collect_interval")
	}
	if flags.Changed("server.snapshot_limit") {
		cfg.SnapshotLimit, _ = flags.GetInt("server.snapshot_limit")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, serversvc.NewInvalidPortError(cfg.Port)
	}
	if cfg.Addr == "" {
		return cfg, serversvc.WrapInvalidConfig(errors.New("listen address must not be empty"))
	}
	if cfg.SnapshotLimit < 1 {
		return cfg, serversvc.WrapInvalidConfig(errors.New("snapshot limit must be at least 1"))
	}
	if cfg.CollectInterval < time.Second {
		return cfg, serversvc.WrapInvalidConfig(fmt.Errorf("collect interval %v is below the 1s minimum", cfg.CollectInterval))
	}
	return cfg, nil
}
