// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package source collects the raw socket listing the analysis engine parses.
// Every source produces text in lsof's `-i -n -P` column layout.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// Source kinds accepted by New.
const (
	KindLsof   = "lsof"
	KindNative = "native"
	KindFile   = "file"
)

// Header is the column header lsof prints and every source emits first.
const Header = "COMMAND     PID   USER   FD   TYPE DEVICE SIZE/OFF NODE NAME"

// Source produces one complete socket listing per call.
type Source interface {
	Name() string
	Collect(ctx context.Context) (string, error)
}

// Options selects and configures a Source.
type Options struct {
	Kind     string
	Input    string
	LsofPath string
	Timeout  time.Duration
	Retry    RetryPolicy
	Stdin    io.Reader
}

// New builds the Source described by opts, wrapped with retries when the
// policy allows more than one attempt.
func New(opts Options, logger zerolog.Logger) (Source, error) {
	logger = logger.With().Str("component", "source").Logger()

	var src Source
	switch opts.Kind {
	case "", KindLsof:
		src = NewLsof(opts.LsofPath, opts.Timeout, logger)
	case KindNative:
		src = NewNative(logger)
	case KindFile:
		if opts.Input == "" {
			return nil, fmt.Errorf("%w: source %q needs an input path", analysis.ErrInvalidInput, KindFile)
		}
		stdin := opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		src = &File{Path: opts.Input, Stdin: stdin}
	default:
		return nil, fmt.Errorf("%w: unknown source %q", analysis.ErrInvalidInput, opts.Kind)
	}

	if opts.Retry.MaxAttempts > 1 {
		if err := opts.Retry.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
		}
		src = WithRetry(src, opts.Retry, logger)
	}
	return src, nil
}

// Static is a Source that always returns the same text. It backs the HTTP
// analyze endpoint and tests.
type Static string

func (s Static) Name() string { return "static" }

func (s Static) Collect(context.Context) (string, error) { return string(s), nil }
