// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package server provides the Cobra commands for the NetWatch HTTP server.
package server

import (
	"github.com/spf13/cobra"
)

const cliExecutable = "server"

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     cliExecutable,
		Short:   "NetWatch HTTP server",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	command.SuggestionsMinimumDistance = 1
	command.SilenceUsage = true
	command.SilenceErrors = true

	command.AddCommand(newStartServerCommand())

	return command
}
