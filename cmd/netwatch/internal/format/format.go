// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package format renders CLI messages, tables and failure summaries
// consistently across netwatch commands.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeText outputs human-readable text and tables
	ModeText OutputMode = "text"
	// ModeJSON outputs data as JSON
	ModeJSON OutputMode = "json"
	// ModeYAML outputs data as YAML
	ModeYAML OutputMode = "yaml"
)

// Formatter provides consistent output formatting across CLI commands
type Formatter interface {
	// Mode returns the selected output mode.
	Mode() OutputMode

	// Quiet reports whether non-essential output is suppressed.
	Quiet() bool

	// Color reports whether ANSI styling is enabled.
	Color() bool

	// Stdout returns the writer for primary output.
	Stdout() io.Writer

	// PrintJSON outputs data as JSON to stdout
	PrintJSON(data any) error

	// PrintYAML outputs data as YAML to stdout
	PrintYAML(data any) error

	// PrintData outputs data as JSON or YAML depending on the mode
	PrintData(data any) error

	// PrintTable outputs data as an aligned table to stdout
	PrintTable(headers []string, rows [][]string) error

	// PrintSummary outputs a summary message to stdout (unless quiet mode)
	PrintSummary(message string) error

	// PrintError outputs an error to stderr (or JSON to stdout in JSON mode)
	PrintError(err error) error

	// PrintSuccessSummary prints a one-line success message
	PrintSuccessSummary(operation, detail string) error

	// PrintTotalFailureSummary prints err with suggestions and returns it
	// marked as reported
	PrintTotalFailureSummary(operation string, err error) error
}

// formatter implements the Formatter interface
type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New creates a new Formatter
func New(stdout, stderr io.Writer, mode OutputMode, quiet, color bool) Formatter {
	return &formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
		color:  color,
	}
}

func (f *formatter) Mode() OutputMode  { return f.mode }
func (f *formatter) Quiet() bool       { return f.quiet }
func (f *formatter) Color() bool       { return f.color }
func (f *formatter) Stdout() io.Writer { return f.stdout }

// PrintJSON outputs data as JSON to stdout
func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML outputs data as YAML to stdout
func (f *formatter) PrintYAML(data any) error {
	enc := yaml.NewEncoder(f.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (f *formatter) PrintData(data any) error {
	if f.mode == ModeYAML {
		return f.PrintYAML(data)
	}
	return f.PrintJSON(data)
}

// PrintTable outputs data as an aligned table to stdout
func (f *formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON || f.mode == ModeYAML {
		// Structured modes get one object per row
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					item[strings.ToLower(header)] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintData(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
		if f.color {
			headerLine[i] = color.New(color.Bold).Sprint(headerLine[i])
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return w.Flush()
}

// PrintSummary outputs a summary message to stdout (unless quiet mode)
func (f *formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}

	if f.mode != ModeText {
		// Structured modes keep stdout machine-readable
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintError outputs an error to stderr (or JSON to stdout in JSON mode)
func (f *formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "Error: %v\n", err)
	}

	return writeErr
}

// ValidateMode checks if the output mode is valid
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeText, ModeJSON, ModeYAML, "yml", "table":
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'text', 'json' or 'yaml')", mode)
	}
}

// ParseMode converts a string to OutputMode
func ParseMode(mode string) OutputMode {
	switch strings.ToLower(mode) {
	case "json":
		return ModeJSON
	case "yaml", "yml":
		return ModeYAML
	default:
		return ModeText
	}
}
