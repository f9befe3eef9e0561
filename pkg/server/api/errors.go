// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// ErrorResponse is the JSON body of every API error.
//
// Example:
//
//	{
//	  "error": "Not Found",
//	  "message": "not found: snapshot 0b7c..."
//	}
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError writes err as a JSON error. The status comes from
// analysis.HTTPStatus, so sentinel errors keep their meaning over HTTP.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := analysis.HTTPStatus(err)

	logEvent := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		logEvent = log.Error()
	}
	logEvent.
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Str("code", analysis.ErrorCode(err)).
		Err(err).
		Msg("Request failed")

	WriteJSONError(w, statusCode, http.StatusText(statusCode), err.Error())
}

// WriteJSONError writes a custom JSON error response.
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: errorType, Message: message})
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
