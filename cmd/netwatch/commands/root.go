// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package commands wires the netwatch command tree.
package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	serverCmd "github.com/netwatch/netwatch/cmd/netwatch/commands/server"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/appctx"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/logging"
	"github.com/netwatch/netwatch/pkg/rules"
	"github.com/netwatch/netwatch/pkg/server"
	"github.com/netwatch/netwatch/pkg/workspace"
)

const cliExecutable = "netwatch"

// NewCommand constructs the top-level netwatch CLI command, wiring global
// flags, configuration, the analysis engine and workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile        string
		workspaceDir      string
		workspaceDisabled bool
		verbosityCount    int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "NetWatch audits the network sockets open on this host",
		Long: `NetWatch inspects the socket table of the local machine, classifies every
process holding a socket, flags risky exposures and scores the overall
security posture from 0 to 100.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			path := configFile
			if path == "" {
				path = workspace.DefaultConfigPath()
			}

			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), path); err != nil {
				return formatter.PrintTotalFailureSummary("load configuration", err)
			}
			cfg := mgr.Get()

			level := logging.VerbosityLevel(verbosityCount, cfg.Log.Level)
			if err := logging.Configure(level, cfg.Log.Format); err != nil {
				return formatter.PrintTotalFailureSummary("configure logging", fmt.Errorf("%w: %v", config.ErrInvalidConfig, err))
			}

			engine, err := loadEngine(cfg.Analysis.RulesFile)
			if err != nil {
				return formatter.PrintTotalFailureSummary("load rules", err)
			}

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			ctx = appctx.WithEngine(ctx, engine)

			if !workspaceDisabled {
				prepared, err := workspace.Prepare(workspaceDir)
				if err != nil {
					return formatter.PrintTotalFailureSummary("prepare workspace", err)
				}
				ctx = workspace.WithContext(ctx, prepared)
				log.Debug().Str("workspace", prepared).Msg("workspace ready")
			} else {
				log.Debug().Msg("workspace disabled for this run")
			}

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
	})

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "", "Override workspace root directory")
	cmd.PersistentFlags().BoolVar(&workspaceDisabled, "no-workspace", false, "Disable workspace persistence for this run")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newAdviseCommand())
	cmd.AddCommand(newRulesCommand())
	cmd.AddCommand(serverCmd.NewCommand())
	cmd.AddCommand(newVersionCommand(cliExecutable))

	return cmd
}

// loadEngine builds the analysis engine from the built-in rules, overlaid
// with path when set.
func loadEngine(path string) (*analysis.Engine, error) {
	r := rules.Default()
	if path != "" {
		loaded, err := rules.Load(path)
		if err != nil {
			return nil, err
		}
		r = loaded
		log.Debug().Str("rules", path).Msg("loaded rules file")
	}
	return analysis.NewEngine(r)
}

// ExitCode maps an error returned by the command tree to a process exit
// code.
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Invalid usage, input or configuration
//   - 3: Invalid rules file
//   - 4: Not found
//   - 7: No data available (listing source missing, failed or not permitted)
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case server.IsServerError(err):
		return server.ExitCode(err)
	case errors.Is(err, config.ErrInvalidConfig):
		return 2
	default:
		return analysis.ExitCode(err)
	}
}
