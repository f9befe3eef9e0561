// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package export writes security reports to disk as text, JSON or YAML.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/render"
	"github.com/netwatch/netwatch/pkg/version"
)

// Format is an export encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const filePermissions = 0o640

// LockTimeout bounds how long WriteFile waits for another writer.
var LockTimeout = 5 * time.Second

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (want text, json or yaml)", analysis.ErrInvalidInput, s)
}

// FormatFromPath guesses the format from a file extension, falling back to
// def.
func FormatFromPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".log":
		return FormatText
	}
	return def
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// Document is the envelope written for structured formats.
type Document struct {
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Host        string                  `json:"host,omitempty" yaml:"host,omitempty"`
	Version     string                  `json:"version" yaml:"version"`
	Source      string                  `json:"source,omitempty" yaml:"source,omitempty"`
	Report      analysis.SecurityReport `json:"report" yaml:"report"`
}

// NewDocument wraps report with generation metadata.
func NewDocument(report analysis.SecurityReport, source string, now time.Time) Document {
	host, _ := os.Hostname()
	return Document{
		GeneratedAt: now.UTC(),
		Host:        host,
		Version:     version.Version,
		Source:      source,
		Report:      report,
	}
}

// Encode writes doc to w in format f.
func Encode(w io.Writer, doc Document, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		header := fmt.Sprintf("Generated %s", doc.GeneratedAt.Format(time.RFC3339))
		if doc.Host != "" {
			header += " on " + doc.Host
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		return render.Text(w, doc.Report, render.Options{})
	}
	return fmt.Errorf("%w: unknown export format %q", analysis.ErrInvalidInput, f)
}

// WriteFile encodes doc into path. Concurrent writers are serialized with an
// advisory lock on path+".lock", and the content is written to a temporary
// file and renamed so readers never see a partial report.
func WriteFile(ctx context.Context, path string, doc Document, f Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: held by another writer", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := Encode(tmp, doc, f); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// DefaultFileName returns a timestamped report name such as
// netwatch-20250101-120000.json.
func DefaultFileName(now time.Time, f Format) string {
	return "netwatch-" + now.UTC().Format("20060102-150405") + f.Extension()
}
