// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHierarchy(t *testing.T) {
	assert.ErrorIs(t, ErrSourceUnavailable, ErrNoData)
	assert.ErrorIs(t, ErrPermissionDenied, ErrNoData)
	assert.NotErrorIs(t, ErrInvalidInput, ErrNoData)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		exit   int
		status int
	}{
		{"nil", nil, "", 0, http.StatusOK},
		{"no data", fmt.Errorf("read sample: %w", ErrNoData), ErrorCodeNoData, 7, http.StatusServiceUnavailable},
		{"source unavailable", fmt.Errorf("lsof: %w", ErrSourceUnavailable), ErrorCodeSourceUnavailable, 7, http.StatusServiceUnavailable},
		{"permission denied", ErrPermissionDenied, ErrorCodePermissionDenied, 7, http.StatusServiceUnavailable},
		{"invalid rules", fmt.Errorf("load: %w", ErrInvalidRules), ErrorCodeInvalidRules, 3, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, ErrorCodeInvalidInput, 2, http.StatusBadRequest},
		{"not found", fmt.Errorf("snapshot 42: %w", ErrNotFound), ErrorCodeNotFound, 4, http.StatusNotFound},
		{"explicit code", WithErrorCode(errors.New("missing"), ErrorCodeNotFound), ErrorCodeNotFound, 4, http.StatusNotFound},
		{"unknown", errors.New("boom"), ErrorCodeAnalysisFailure, 1, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
			assert.Equal(t, tt.exit, ExitCode(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWithErrorCode(t *testing.T) {
	assert.NoError(t, WithErrorCode(nil, ErrorCodeNoData))

	base := errors.New("lsof exited 1")
	err := WithErrorCode(base, ErrorCodeSourceUnavailable)
	require.Error(t, err)
	assert.Equal(t, "lsof exited 1", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ErrorCodeSourceUnavailable, ErrorCode(fmt.Errorf("wrapped: %w", err)))
}

func TestSuggestions(t *testing.T) {
	assert.Nil(t, Suggestions(nil))
	for _, err := range []error{ErrNoData, ErrSourceUnavailable, ErrPermissionDenied, ErrInvalidRules, ErrInvalidInput, errors.New("x")} {
		assert.NotEmpty(t, Suggestions(err), err.Error())
	}
	assert.Contains(t, Suggestions(ErrPermissionDenied)[0], "sudo")
}
