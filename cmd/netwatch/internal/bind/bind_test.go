// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package bind

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	serversvc "github.com/netwatch/netwatch/pkg/server"
	"github.com/netwatch/netwatch/pkg/source"
)

func TestSourceOptions(t *testing.T) {
	base := config.DefaultConfig().Analysis

	tests := []struct {
		name      string
		cfg       func() config.AnalysisConfig
		args      []string
		wantKind  string
		wantInput string
		wantRetry int
	}{
		{
			name:      "configured lsof keeps retries",
			cfg:       func() config.AnalysisConfig { return base },
			wantKind:  source.KindLsof,
			wantRetry: base.Retry.MaxAttempts,
		},
		{
			name:      "positional file overrides source",
			cfg:       func() config.AnalysisConfig { return base },
			args:      []string{"capture.txt"},
			wantKind:  source.KindFile,
			wantInput: "capture.txt",
			wantRetry: 1,
		},
		{
			name: "configured file input",
			cfg: func() config.AnalysisConfig {
				c := base
				c.Source = source.KindFile
				c.Input = "-"
				return c
			},
			wantKind:  source.KindFile,
			wantInput: source.StdinPath,
			wantRetry: 1,
		},
		{
			name: "positional file wins over configured input",
			cfg: func() config.AnalysisConfig {
				c := base
				c.Source = source.KindFile
				c.Input = "old.txt"
				return c
			},
			args:      []string{"new.txt"},
			wantKind:  source.KindFile,
			wantInput: "new.txt",
			wantRetry: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := SourceOptions(tt.cfg(), tt.args, nil)
			require.Equal(t, tt.wantKind, opts.Kind)
			require.Equal(t, tt.wantInput, opts.Input)
			require.Equal(t, tt.wantRetry, opts.Retry.MaxAttempts)
		})
	}
}

func TestNewRunner(t *testing.T) {
	engine, err := analysis.NewEngine(nil)
	require.NoError(t, err)

	opts := SourceOptions(config.DefaultConfig().Analysis, []string{"-"}, strings.NewReader(""))
	svc, err := NewRunner(engine, opts)
	require.NoError(t, err)
	require.Equal(t, source.KindFile, svc.SourceName())

	_, err = NewRunner(engine, source.Options{Kind: "carrier-pigeon"})
	require.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func newServerFlagsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "start"}
	config.BindServerFlags(cmd.Flags())
	cmd.Flags().String("listen-addr", "", "")
	cmd.Flags().Int("port", 0, "")
	return cmd
}

func TestBindServerOptions(t *testing.T) {
	base := config.DefaultServerConfig()

	tests := []struct {
		name    string
		args    map[string]string
		want    func(c *config.ServerConfig)
		wantErr error
	}{
		{
			name: "defaults",
			want: func(*config.ServerConfig) {},
		},
		{
			name: "shortcut flags",
			args: map[string]string{"listen-addr": "0.0.0.0", "port": "9000"},
			want: func(c *config.ServerConfig) {
				c.Addr = "0.0.0.0"
				c.Port = 9000
			},
		},
		{
			name: "shortcut wins over namespaced flag",
			args: map[string]string{"server.port": "9001", "port": "9002"},
			want: func(c *config.ServerConfig) { c.Port = 9002 },
		},
		{
			name: "collector settings",
			args: map[string]string{
				"server.collect_interval": "5s",
				"server.snapshot_limit":   "3",
				"server.metrics":          "false",
			},
			want: func(c *config.ServerConfig) {
				c.CollectInterval = 5 * time.Second
				c.SnapshotLimit = 3
				c.Metrics = false
			},
		},
		{
			name:    "port zero",
			args:    map[string]string{"port": "0"},
			wantErr: serversvc.ErrInvalidPort,
		},
		{
			name:    "port too large",
			args:    map[string]string{"server.port": "70000"},
			wantErr: serversvc.ErrInvalidPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServerFlagsCommand()
			for k, v := range tt.args {
				require.NoError(t, cmd.Flags().Set(k, v))
			}

			got, err := BindServerOptions(cmd, base)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, 2, serversvc.ExitCode(err))
				return
			}
			require.NoError(t, err)

			want := base
			tt.want(&want)
			require.Equal(t, want, got)
		})
	}
}

func TestBindServerOptions_InvalidConfig(t *testing.T) {
	cmd := newServerFlagsCommand()
	require.NoError(t, cmd.Flags().Set("server.snapshot_limit", "0"))

	_, err := BindServerOptions(cmd, config.DefaultServerConfig())
	require.Error(t, err)
	require.False(t, errors.Is(err, serversvc.ErrInvalidPort))
	require.Equal(t, "SERVER_INVALID_CONFIG", serversvc.ErrorCode(err))
}

func TestBindServerOptions_CollectIntervalMinimum(t *testing.T) {
	cmd := newServerFlagsCommand()
	require.NoError(t, cmd.Flags().Set("server.collect_interval", "500ms"))

	_, err := BindServerOptions(cmd, config.DefaultServerConfig())
	require.ErrorContains(t, err, "below the 1s minimum")
}
