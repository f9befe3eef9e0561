// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package appctx carries process-wide dependencies through command contexts.
package appctx

import (
	"context"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
)

type key string

const (
	configKey key = "netwatch.config.manager"
	engineKey key = "netwatch.analysis.engine"
)

// WithConfig stores the shared config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config retrieves the shared config manager from context.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// WithEngine stores an analysis engine built from the loaded rules.
func WithEngine(ctx context.Context, engine *analysis.Engine) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, engineKey, engine)
}

// Engine retrieves the analysis engine from context.
func Engine(ctx context.Context) (*analysis.Engine, bool) {
	if ctx == nil {
		return nil, false
	}
	e, ok := ctx.Value(engineKey).(*analysis.Engine)
	return e, ok && e != nil
}
