// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package bind turns command flags and loaded configuration into the option
// structs the netwatch packages consume.
package bind

import (
	"io"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/logging"
	"github.com/netwatch/netwatch/pkg/runner"
	"github.com/netwatch/netwatch/pkg/source"
)

// SourceOptions converts analysis configuration into source options. A
// positional file argument takes precedence over the configured source.
func SourceOptions(cfg config.AnalysisConfig, args []string, stdin io.Reader) source.Options {
	opts := source.Options{
		Kind:     cfg.Source,
		Input:    cfg.Input,
		LsofPath: cfg.LsofPath,
		Timeout:  cfg.Timeout,
		Retry: source.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait,
			MaxWait:     cfg.Retry.MaxWait,
			Multiplier:  2.0,
			Jitter:      true,
		},
		Stdin: stdin,
	}
	if len(args) > 0 {
		opts.Kind = source.KindFile
		opts.Input = args[0]
	}
	if opts.Kind == source.KindFile {
		// Files are read once; stdin cannot be re-read.
		opts.Retry = source.NoRetry()
	}
	return opts
}

// NewRunner builds the analysis runner reading from opts.
func NewRunner(engine *analysis.Engine, opts source.Options) (*runner.Service, error) {
	src, err := source.New(opts, logging.Component("source"))
	if err != nil {
		return nil, err
	}
	return runner.NewService(src, engine, logging.Component("runner")), nil
}
