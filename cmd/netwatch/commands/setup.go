// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/bind"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/appctx"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/output"
	"github.com/netwatch/netwatch/pkg/output/subscribers"
	"github.com/netwatch/netwatch/pkg/runner"
	"github.com/netwatch/netwatch/pkg/source"
)

// errNotInitialized means a command ran without the root command's setup.
var errNotInitialized = errors.New("command context not initialized; run through the netwatch root command")

// commandEnv is what analysis commands read from the command context.
type commandEnv struct {
	cfg    config.Config
	engine *analysis.Engine
}

func envFromCommand(cmd *cobra.Command) (commandEnv, error) {
	mgr, ok := appctx.Config(cmd.Context())
	if !ok {
		return commandEnv{}, errNotInitialized
	}
	engine, ok := appctx.Engine(cmd.Context())
	if !ok {
		return commandEnv{}, errNotInitialized
	}
	return commandEnv{cfg: mgr.Get(), engine: engine}, nil
}

// newRunner builds the analysis runner reading from opts.
func newRunner(env commandEnv, opts source.Options) (*runner.Service, error) {
	return bind.NewRunner(env.engine, opts)
}

// setupOutputPipeline creates the output stream for a command.
//
// Flag-based selection:
//   - -v/-vv/-vvv: DiagnosticSubscriber (verbose/debug/trace output to stderr)
//
// Structured output modes get no diagnostics so stderr stays quiet for
// scripts that capture both streams.
func setupOutputPipeline(cmd *cobra.Command, f format.Formatter) *output.OutputEventStream {
	stream := output.NewOutputEventStream()

	verbosityCount, _ := cmd.Flags().GetCount("verbosity")
	if f.Mode() == format.ModeText && verbosityCount > 0 {
		stream.Subscribe(subscribers.NewDiagnosticSubscriber(output.LevelFromVerbosity(verbosityCount), cmd.ErrOrStderr()))
	}
	return stream
}

// emitLineErrors reports unparseable lines as debug diagnostics.
func emitLineErrors(stream *output.OutputEventStream, res *runner.Result) {
	for _, le := range res.LineErrors {
		stream.Emit(output.Diag(output.LevelDebug, "skipped unparseable line", map[string]any{
			"line":   le.Line,
			"reason": le.Reason,
		}))
	}
}

// invalidInput marks err as a usage error.
func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
}

// exactArgs is cobra.ExactArgs reporting usage errors as invalid input.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return invalidInput(cobra.ExactArgs(n)(cmd, args))
	}
}

// maximumArgs is cobra.MaximumNArgs reporting usage errors as invalid input.
func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return invalidInput(cobra.MaximumNArgs(n)(cmd, args))
	}
}

// addOutputFlags registers the --output, --quiet and --no-color flags read by
// format.FromCommand.
func addOutputFlags(cmd *cobra.Command, defaultMode format.OutputMode) {
	cmd.Flags().StringP("output", "o", string(defaultMode), "Output format: text, json or yaml")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress the report and summaries")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
}

// validateOutputFlag rejects unknown --output values.
func validateOutputFlag(cmd *cobra.Command) error {
	mode, _ := cmd.Flags().GetString("output")
	return invalidInput(format.ValidateMode(mode))
}
