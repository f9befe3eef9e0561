// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"fmt"
	"os"

	"github.com/netwatch/netwatch/cmd/netwatch/commands"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
)

// main runs the netwatch command tree and exits with the code mapped from
// the returned error. Errors a command already reported are not printed
// again.
func main() {
	command := commands.NewCommand()

	if err := command.Execute(); err != nil {
		if !format.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(commands.ExitCode(err))
	}
}
