// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/rules"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Inspect and validate analysis rules",
		GroupID: "core",
	}

	cmd.AddCommand(newRulesShowCommand())
	cmd.AddCommand(newRulesValidateCommand())
	return cmd
}

func newRulesShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective rules",
		Long: `Print the rule set the analysis engine uses: the built-in rules overlaid
with the rules file from --rules or analysis.rules_file, if any.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFlag(cmd); err != nil {
				return err
			}
			formatter := format.FromCommand(cmd)

			env, err := envFromCommand(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("show rules", err)
			}
			if formatter.Mode() == format.ModeJSON {
				return formatter.PrintJSON(env.engine.Rules())
			}
			return formatter.PrintYAML(env.engine.Rules())
		},
	}

	cmd.Flags().String("rules", "", "YAML rules file overriding the built-in rules")
	addOutputFlags(cmd, format.ModeYAML)
	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a rules file without running an analysis",
		Example: `  netwatch rules validate rules.yaml
  netwatch analyze --rules rules.yaml`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFlag(cmd); err != nil {
				return err
			}
			formatter := format.FromCommand(cmd)

			r, err := rules.Load(args[0])
			if err != nil {
				return formatter.PrintTotalFailureSummary("validate rules", err)
			}
			if _, err := analysis.NewEngine(r); err != nil {
				return formatter.PrintTotalFailureSummary("validate rules", err)
			}

			return formatter.PrintSuccessSummary("validate rules",
				fmt.Sprintf("%s is valid (%d category tables, %d risk rules, %d suspicious ports)",
					args[0], len(r.Categories), len(r.RiskRules), len(r.SuspiciousPorts)))
		},
	}

	addOutputFlags(cmd, format.ModeText)
	return cmd
}
