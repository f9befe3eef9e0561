// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package server holds the error vocabulary of `netwatch server`. The HTTP
// runtime lives in the app, httpx and api subpackages.
package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidPort       = "SERVER_INVALID_PORT"
	errorCodeConfigUnavailable = "SERVER_CONFIG_UNAVAILABLE"
	errorCodeInvalidConfig     = "SERVER_INVALID_CONFIG"
	errorCodeAppInitFailed     = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed     = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrConfigUnavailable indicates the CLI context lacked a config.
	ErrConfigUnavailable = errors.New("config unavailable")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError formats an invalid port error with context.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// WrapInvalidConfig annotates server config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapAppInit annotates server app creation failures.
func WrapAppInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeAppInitFailed)
}

// WrapRuntime annotates server runtime failures.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeRuntimeFailed)
}

// ErrorCode resolves a server error to its error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrInvalidPort):
		return errorCodeInvalidPort
	case errors.Is(err, ErrConfigUnavailable):
		return errorCodeConfigUnavailable
	default:
		return errorCodeRuntimeFailed
	}
}

// ExitCode maps server errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort, errorCodeInvalidConfig:
		return 2
	case errorCodeAppInitFailed:
		return 7
	default:
		return 1
	}
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort:
		return []string{
			"Use a port between 1 and 65535",
			"Example:                 netwatch server start --server.port 8642",
		}
	case errorCodeConfigUnavailable:
		return []string{
			"Run via the netwatch CLI so configuration is loaded",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Check server.* values in the config file",
			"Retry with -vv for detailed validation errors",
		}
	case errorCodeAppInitFailed:
		return []string{
			"Check the analysis source works:  netwatch analyze",
			"Review configuration for invalid values",
		}
	case errorCodeRuntimeFailed:
		return []string{
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		}
	default:
		return nil
	}
}

// IsServerError reports whether err carries a server error code or one of
// the server sentinels.
func IsServerError(err error) bool {
	var coded *withCodeError
	return errors.As(err, &coded) ||
		errors.Is(err, ErrInvalidPort) ||
		errors.Is(err, ErrConfigUnavailable)
}
