// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// StdinPath selects standard input as the listing file.
const StdinPath = "-"

// File reads a saved listing, typically captured with `lsof -i -n -P`.
type File struct {
	Path  string
	Stdin io.Reader
}

func (f *File) Name() string { return KindFile }

// Collect returns the file content. A missing or unreadable file means no
// data is available.
func (f *File) Collect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if f.Path == StdinPath {
		if f.Stdin == nil {
			return "", fmt.Errorf("%w: no standard input", analysis.ErrNoData)
		}
		b, err := io.ReadAll(f.Stdin)
		if err != nil {
			return "", fmt.Errorf("%w: read stdin: %v", analysis.ErrNoData, err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(f.Path)
	switch {
	case err == nil:
		return string(b), nil
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("%w: %v", analysis.ErrPermissionDenied, err)
	default:
		return "", fmt.Errorf("%w: %v", analysis.ErrNoData, err)
	}
}
