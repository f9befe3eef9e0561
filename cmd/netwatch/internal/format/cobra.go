// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// FromCommand builds a Formatter using cobra command output/error writers and common flags.
func FromCommand(cmd *cobra.Command) Formatter {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	outputMode := ModeText
	if flag := cmd.Flags().Lookup("output"); flag != nil {
		outputMode = ParseMode(flag.Value.String())
	}

	quiet := false
	if flag := cmd.Flags().Lookup("quiet"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil {
			quiet = val
		}
	}

	useColor := !color.NoColor
	if flag := cmd.Flags().Lookup("no-color"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil && val {
			useColor = false
		}
	}

	// Cobra defaults to stderr being nil in some paths; ensure we have a fallback.
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return New(stdout, stderr, outputMode, quiet, useColor)
}
