// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import "time"

// Config is the root configuration structure for NetWatch.
type Config struct {
	Log      LogConfig      `description:"Logging configuration" koanf:"log"`
	Analysis AnalysisConfig `description:"Socket collection and analysis" koanf:"analysis"`
	Watch    WatchConfig    `description:"Continuous monitoring" koanf:"watch"`
	Export   ExportConfig   `description:"Report export" koanf:"export"`
	Server   ServerConfig   `description:"Server configuration" koanf:"server"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (trace, debug, info, warn, error)" koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: console | json" koanf:"format" validate:"oneof=console json"`
}

// AnalysisConfig selects where the socket listing comes from and which
// rules classify it.
type AnalysisConfig struct {
	Source    string        `description:"Listing source: lsof | native | file" koanf:"source" validate:"oneof=lsof native file"`
	Input     string        `description:"Listing file for the file source (- for stdin)" koanf:"input" validate:"required_if=Source file"`
	LsofPath  string        `description:"lsof executable" koanf:"lsof_path"`
	Timeout   time.Duration `description:"Collection timeout" koanf:"timeout" validate:"gte=0"`
	RulesFile string        `description:"YAML file overriding the built-in rules" koanf:"rules_file"`
	Retry     RetryConfig   `description:"Retry policy for transient collection failures" koanf:"retry"`
}

// RetryConfig mirrors source.RetryPolicy in configuration form.
type RetryConfig struct {
	MaxAttempts int           `description:"Attempts including the first (1 disables retries)" koanf:"max_attempts" validate:"gte=0,lte=10"`
	InitialWait time.Duration `description:"Wait before the first retry" koanf:"initial_wait" validate:"gte=0"`
	MaxWait     time.Duration `description:"Upper bound for a single wait" koanf:"max_wait" validate:"gte=0"`
}

// WatchConfig holds settings for `netwatch watch`.
type WatchConfig struct {
	Interval time.Duration `description:"Time between snapshots" koanf:"interval" validate:"gte=100ms"`
}

// ExportConfig holds settings for report export.
type ExportConfig struct {
	Format string `description:"Export format: text | json | yaml" koanf:"format" validate:"oneof=text json yaml"`
}

// ServerConfig holds configuration for the NetWatch HTTP server.
// Used by 'netwatch server start'.
type ServerConfig struct {
	Addr string `description:"Server listen address" koanf:"addr" validate:"required"`
	Port int    `description:"Server listen port" koanf:"port" validate:"gte=1,lte=65535"`

	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout" validate:"gte=0"`

	// Background collection
	CollectInterval time.Duration `description:"Time between background snapshots" koanf:"collect_interval" validate:"gte=1s"`
	SnapshotLimit   int           `description:"Snapshots kept in memory" koanf:"snapshot_limit" validate:"gte=1,lte=1000"`

	Metrics bool `description:"Expose Prometheus metrics on /metrics" koanf:"metrics"`
}
