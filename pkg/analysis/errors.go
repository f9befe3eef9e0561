// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/netwatch/netwatch/pkg/rules"
)

// Sentinel errors for analysis failures.
var (
	// ErrNoData indicates the socket table could not be inspected at all.
	// It is distinct from an empty listing, which is a valid clean result.
	ErrNoData = errors.New("no data available")

	// ErrSourceUnavailable indicates the listing tool is missing or failed.
	ErrSourceUnavailable = fmt.Errorf("%w: listing source unavailable", ErrNoData)

	// ErrPermissionDenied indicates the listing tool lacked privileges.
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrNoData)

	// ErrInvalidInput indicates unusable caller input, e.g. an unknown port.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested snapshot or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRules is re-exported so callers need not import rules.
	ErrInvalidRules = rules.ErrInvalidRules
)

// Error codes used by the CLI suggestion system and API responses.
const (
	ErrorCodeNoData            = "NO_DATA"
	ErrorCodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	ErrorCodePermissionDenied  = "PERMISSION_DENIED"
	ErrorCodeInvalidInput      = "INVALID_INPUT"
	ErrorCodeInvalidRules      = "INVALID_RULES"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeAnalysisFailure   = "ANALYSIS_FAILURE"
)

// codedError wraps an error with an explicit error code.
type codedError struct {
	error
	code string
}

func (e *codedError) Unwrap() error {
	return e.error
}

func (e *codedError) Code() string {
	return e.code
}

// WithErrorCode wraps err with a specific error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

// ErrorCode resolves an error into a stable error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ErrorCodePermissionDenied
	case errors.Is(err, ErrSourceUnavailable):
		return ErrorCodeSourceUnavailable
	case errors.Is(err, ErrNoData):
		return ErrorCodeNoData
	case errors.Is(err, ErrInvalidRules):
		return ErrorCodeInvalidRules
	case errors.Is(err, ErrInvalidInput):
		return ErrorCodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return ErrorCodeNotFound
	}
	return ErrorCodeAnalysisFailure
}

// ExitCode maps errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case ErrorCodeInvalidInput:
		return 2
	case ErrorCodeInvalidRules:
		return 3
	case ErrorCodeNotFound:
		return 4
	case ErrorCodeNoData, ErrorCodeSourceUnavailable, ErrorCodePermissionDenied:
		return 7
	default:
		return 1
	}
}

// HTTPStatus maps errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch ErrorCode(err) {
	case ErrorCodeInvalidInput, ErrorCodeInvalidRules:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeNoData, ErrorCodeSourceUnavailable, ErrorCodePermissionDenied:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Suggestions provides operator hints for an error.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case ErrorCodePermissionDenied:
		return []string{
			"Re-run with elevated privileges:  sudo netwatch analyze",
			"Analyze a saved listing instead:  lsof -i -n -P > sample.txt && netwatch analyze sample.txt",
		}
	case ErrorCodeSourceUnavailable:
		return []string{
			"Install lsof or point to it:      netwatch analyze --lsof-path /usr/sbin/lsof",
			"Use the built-in collector:       netwatch analyze --source native",
		}
	case ErrorCodeNoData:
		return []string{
			"Check the input file exists:      netwatch analyze --source file --input sample.txt",
		}
	case ErrorCodeInvalidRules:
		return []string{
			"Inspect the effective rules:      netwatch rules show",
			"Validate your rules file:         netwatch rules validate rules.yaml",
		}
	case ErrorCodeInvalidInput:
		return []string{
			"Run help for options:             netwatch --help",
		}
	default:
		return []string{
			"Retry with verbose logs:          netwatch analyze -vv",
		}
	}
}
