// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		errorStr string
	}{
		{"not found", fmt.Errorf("%w: snapshot abc", analysis.ErrNotFound), http.StatusNotFound, "Not Found"},
		{"invalid input", fmt.Errorf("%w: limit", analysis.ErrInvalidInput), http.StatusBadRequest, "Bad Request"},
		{"no data", analysis.ErrPermissionDenied, http.StatusServiceUnavailable, "Service Unavailable"},
		{"generic", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/abc", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, tt.err)

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			require.Equal(t, tt.errorStr, response.Error)
			require.Equal(t, tt.err.Error(), response.Message)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"score": 88})

	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"score":88}`, w.Body.String())
}
