// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	v "github.com/netwatch/netwatch/pkg/version"
)

func newVersionCommand(cliExecutable string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		Args:    exactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			info := v.Get()
			fmt.Fprintf(out, "%s version: %s\n", cliExecutable, info.Version)
			if short {
				return
			}
			if info.Commit != "" {
				fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			}
			fmt.Fprintf(out, "Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
