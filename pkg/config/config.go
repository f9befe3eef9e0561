// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package config loads NetWatch configuration from defaults, a YAML file,
// NETWATCH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by EnvSource.
const EnvPrefix = "NETWATCH_"

// ErrInvalidConfig is returned when the merged configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a Config populated with hardcoded default values.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Analysis: AnalysisConfig{
			Source:  "lsof",
			Timeout: 15 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				InitialWait: 500 * time.Millisecond,
				MaxWait:     5 * time.Second,
			},
		},
		Watch: WatchConfig{
			Interval: 5 * time.Second,
		},
		Export: ExportConfig{
			Format: "text",
		},
		Server: DefaultServerConfig(),
	}
}

// Load reads defaults, the optional config file, the environment and flags,
// in that order of precedence.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	return m.LoadWithSources(DefaultSources(configFilePath, flags, false))
}

// LoadWithSources loads the given sources by ascending priority, then
// unmarshals and validates the merged result.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]ConfigSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	postProcessConfig(&newCfg)

	if err := Validate(newCfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Koanf exposes the merged key space, mainly for `config` debugging output.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// Validate checks cfg against its struct constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if r := cfg.Analysis.Retry; r.MaxWait > 0 && r.InitialWait > r.MaxWait {
		return fmt.Errorf("%w: analysis.retry.initial_wait (%v) exceeds max_wait (%v)", ErrInvalidConfig, r.InitialWait, r.MaxWait)
	}
	return nil
}

func postProcessConfig(cfg *Config) {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Analysis.Source = strings.ToLower(cfg.Analysis.Source)
	cfg.Export.Format = strings.ToLower(cfg.Export.Format)
	if cfg.Analysis.Input != "" {
		cfg.Analysis.Source = "file"
	}
}

// DefaultConfigAsMap flattens DefaultConfig into koanf keys.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"analysis.source":             def.Analysis.Source,
		"analysis.input":              def.Analysis.Input,
		"analysis.lsof_path":          def.Analysis.LsofPath,
		"analysis.timeout":            def.Analysis.Timeout,
		"analysis.rules_file":         def.Analysis.RulesFile,
		"analysis.retry.max_attempts": def.Analysis.Retry.MaxAttempts,
		"analysis.retry.initial_wait": def.Analysis.Retry.InitialWait,
		"analysis.retry.max_wait":     def.Analysis.Retry.MaxWait,

		"watch.interval": def.Watch.Interval,

		"export.format": def.Export.Format,

		"server.addr":             def.Server.Addr,
		"server.port":             def.Server.Port,
		"server.read_timeout":     def.Server.ReadTimeout,
		"server.write_timeout":    def.Server.WriteTimeout,
		"server.collect_interval": def.Server.CollectInterval,
		"server.snapshot_limit":   def.Server.SnapshotLimit,
		"server.metrics":          def.Server.Metrics,
	}
}

// FlagKeys maps short command-line flag names to configuration keys. Flags
// named after their key (--server.port) need no entry.
var FlagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"source":        "analysis.source",
	"input":         "analysis.input",
	"lsof-path":     "analysis.lsof_path",
	"timeout":       "analysis.timeout",
	"rules":         "analysis.rules_file",
	"retries":       "analysis.retry.max_attempts",
	"interval":      "watch.interval",
	"export-format": "export.format",
	"listen-addr":   "server.addr",
	"port":          "server.port",
}

// BindFlags defines the global flags that override configuration values.
// The --config flag is defined on the root command.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String("log-level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "Log format (console, json)")
	flags.Bool("debug", false, "Enable debug logging")
}

// BindAnalysisFlags defines the flags shared by commands that collect a
// listing.
func BindAnalysisFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().Analysis
	flags.String("source", defaults.Source, "Listing source: lsof, native or file")
	flags.StringP("input", "i", "", "Read the listing from a file (- for stdin); implies --source file")
	flags.String("lsof-path", defaults.LsofPath, "Path to the lsof executable")
	flags.Duration("timeout", defaults.Timeout, "Collection timeout")
	flags.String("rules", defaults.RulesFile, "YAML rules file overriding the built-in rules")
	flags.Int("retries", defaults.Retry.MaxAttempts, "Attempts for transient collection failures")
}
