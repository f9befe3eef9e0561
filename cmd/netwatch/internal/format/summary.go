// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/server"
)

const errorCodeInvalidConfig = "INVALID_CONFIG"

// reportedError marks an error whose summary was already printed.
type reportedError struct {
	error
}

func (e *reportedError) Unwrap() error { return e.error }

// IsReported reports whether err was already shown to the user by
// PrintTotalFailureSummary.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// ErrorCode resolves err into the code shown in failure summaries.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case server.IsServerError(err):
		return server.ErrorCode(err)
	case errors.Is(err, config.ErrInvalidConfig):
		return errorCodeInvalidConfig
	default:
		return analysis.ErrorCode(err)
	}
}

// Suggestions returns operator hints for err.
func Suggestions(err error) []string {
	switch {
	case err == nil:
		return nil
	case server.IsServerError(err):
		return server.Suggestions(err)
	case errors.Is(err, config.ErrInvalidConfig):
		return []string{
			"Check configuration values:      netwatch --config config.yaml ...",
			"Override a value with a flag:    netwatch analyze --timeout 30s",
		}
	default:
		return analysis.Suggestions(err)
	}
}

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Exported report to reports/netwatch-20250101-120000.json"
//   - "✓ Validate completed successfully"
func (f *formatter) PrintSuccessSummary(operation, detail string) error {
	if f.quiet {
		return nil
	}

	if f.mode != ModeText {
		return f.PrintData(map[string]any{
			"success":   true,
			"operation": operation,
			"detail":    detail,
		})
	}

	message := fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	if detail != "" {
		message = fmt.Sprintf("✓ %s", detail)
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintTotalFailureSummary prints total failure with error and suggestions.
// The returned error wraps err so callers can return it for the exit code.
// Example output:
//
//	✗ Failed to analyze: no data available: permission denied
//
//	💡 Suggestions:
//	  → Re-run with elevated privileges:  sudo netwatch analyze
func (f *formatter) PrintTotalFailureSummary(operation string, err error) error {
	if err == nil {
		return nil
	}
	reported := &reportedError{error: err}
	if f.quiet && f.mode == ModeText {
		_, _ = fmt.Fprintf(f.stderr, "Error: %v\n", err)
		return reported
	}

	if f.mode == ModeJSON {
		_ = f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": ErrorCode(err),
		})
		return reported
	}

	var sb strings.Builder

	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	if suggestions := Suggestions(err); len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	_, _ = f.stderr.Write([]byte(sb.String()))
	return reported
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
