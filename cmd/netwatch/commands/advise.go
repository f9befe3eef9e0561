// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/analysis"
)

func newAdviseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "advise PORT",
		Short:   "Show hardening advice for a port",
		GroupID: "analysis",
		Example: `  netwatch advise 6379
  netwatch advise 22 -o json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFlag(cmd); err != nil {
				return err
			}
			formatter := format.FromCommand(cmd)

			env, err := envFromCommand(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("advise", err)
			}

			port, err := strconv.Atoi(args[0])
			if err != nil {
				return formatter.PrintTotalFailureSummary("advise",
					fmt.Errorf("%w: port %q is not a number", analysis.ErrInvalidInput, args[0]))
			}
			adv, err := env.engine.PortAdvice(port)
			if err != nil {
				return formatter.PrintTotalFailureSummary("advise", err)
			}

			if formatter.Mode() != format.ModeText {
				return formatter.PrintData(adv)
			}
			return printAdvisory(formatter, adv)
		},
	}

	addOutputFlags(cmd, format.ModeText)
	return cmd
}

func printAdvisory(f format.Formatter, adv analysis.PortAdvisory) error {
	var b strings.Builder

	title := fmt.Sprintf("Port %d", adv.Port)
	if adv.Service != "" {
		title += " (" + adv.Service + ")"
	}
	if f.Color() {
		title = color.New(color.Bold).Sprint(title)
	}
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "  %s\n", adv.Description)
	fmt.Fprintf(&b, "  Risk when exposed on all interfaces: %s\n", adv.Exposed)

	if len(adv.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, rec := range adv.Recommendations {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
		}
	}
	if len(adv.Commands) > 0 {
		b.WriteString("\nCommands:\n")
		for _, c := range adv.Commands {
			fmt.Fprintf(&b, "  $ %s\n", c)
		}
	}

	_, err := fmt.Fprint(f.Stdout(), b.String())
	return err
}
