// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package api

import (
	"errors"
	"time"
)

var (
	// ErrInvalidTimeout is returned when a timeout value is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be >= 0")
	// ErrInvalidBodyLimit is returned when the body limit is not positive.
	ErrInvalidBodyLimit = errors.New("invalid body limit: must be > 0")
)

// Config holds API-level configuration.
type Config struct {
	// HandlerTimeout bounds a handler when the request context has no
	// deadline of its own. Zero disables it.
	HandlerTimeout time.Duration

	// MaxBodyBytes caps the listing text accepted by POST /api/v1/analyze.
	MaxBodyBytes int64
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		HandlerTimeout: 30 * time.Second,
		MaxBodyBytes:   8 << 20,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.HandlerTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidBodyLimit
	}
	return nil
}
