// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/netwatch/netwatch/pkg/analysis"
)

var validate = validator.New()

// DefaultSnapshotLimit is used when ?limit is omitted.
const DefaultSnapshotLimit = 20

// ListSnapshotsQuery represents supported query params for
// GET /api/v1/snapshots.
type ListSnapshotsQuery struct {
	Limit int
}

// ParseListSnapshotsQuery parses and validates query params.
func ParseListSnapshotsQuery(r *http.Request) (*ListSnapshotsQuery, error) {
	q := r.URL.Query()
	res := ListSnapshotsQuery{Limit: DefaultSnapshotLimit}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be an integer"}
		}
		if err := validate.Var(n, "min=1,max=1000"); err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 1000"}
		}
		res.Limit = n
	}
	return &res, nil
}

// ParsePort validates a {port} path value.
func ParsePort(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Field: "port", Reason: "must be an integer"}
	}
	if err := validate.Var(n, "min=0,max=65535"); err != nil {
		return 0, &ValidationError{Field: "port", Reason: "must be between 0 and 65535"}
	}
	return n, nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}

// Unwrap makes validation errors map to 400 through analysis.HTTPStatus.
func (e *ValidationError) Unwrap() error {
	return analysis.ErrInvalidInput
}
